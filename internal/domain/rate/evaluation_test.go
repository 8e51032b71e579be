package rate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPolicyAppliesEmptyCondition(t *testing.T) {
	p := &Policy{Rate: dec("2.0"), Active: true}
	ok, err := p.Applies("CL-1", "HL", dec("100000"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPolicyAppliesAmountThreshold(t *testing.T) {
	p := &Policy{Condition: "disbursed_amount >= 5000000", Rate: dec("1.0"), Active: true}

	ok, err := p.Applies("CL-1", "HL", dec("5000000"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Applies("CL-1", "HL", dec("4999999"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPolicyAppliesProductMatch(t *testing.T) {
	p := &Policy{Condition: "product == 'LAP' && disbursed_amount > 0", Rate: dec("2.5"), Active: true}

	ok, err := p.Applies("CL-1", "LAP", dec("100"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Applies("CL-1", "HL", dec("100"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPolicyAppliesBadCondition(t *testing.T) {
	p := &Policy{Condition: "disbursed_amount >=", Rate: dec("1.0"), Active: true}
	_, err := p.Applies("CL-1", "HL", dec("100"))
	assert.Error(t, err)
}

func TestPolicyAppliesNonBooleanCondition(t *testing.T) {
	p := &Policy{Condition: "disbursed_amount + 1", Rate: dec("1.0"), Active: true}
	_, err := p.Applies("CL-1", "HL", dec("100"))
	assert.Error(t, err)
}

func TestResolveFirstMatchWins(t *testing.T) {
	policies := []*Policy{
		{Condition: "disbursed_amount >= 5000000", Rate: dec("1.0"), Priority: 10, Active: true},
		{Condition: "", Rate: dec("2.0"), Priority: 1, Active: true},
	}

	r, err := Resolve(policies, "CL-1", "HL", dec("6000000"))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.Equal(dec("1.0")))

	r, err = Resolve(policies, "CL-1", "HL", dec("100000"))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.Equal(dec("2.0")))
}

func TestResolveSkipsInactive(t *testing.T) {
	policies := []*Policy{
		{Rate: dec("9.9"), Active: false},
	}
	r, err := Resolve(policies, "CL-1", "HL", dec("100"))
	require.NoError(t, err)
	assert.Nil(t, r)
}

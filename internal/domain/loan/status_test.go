package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatusBlank(t *testing.T) {
	assert.Equal(t, StatusDraft, NormalizeStatus(""))
	assert.Equal(t, StatusDraft, NormalizeStatus("   "))
	assert.Equal(t, StatusDraft, NormalizeStatus("\t\n"))
}

func TestNormalizeStatusAliases(t *testing.T) {
	cases := map[string]Status{
		"forwarded_to_credit": StatusPendingCreditReview,
		"FORWARDED_TO_CREDIT": StatusPendingCreditReview,
		"forwarded-to-credit": StatusPendingCreditReview,
		"credit_query_raised": StatusCreditQueryWithKAM,
		"pending_kam_review":  StatusUnderKAMReview,
		"kam_query_raised":    StatusQueryWithClient,
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeStatus(raw), "raw=%q", raw)
	}
}

func TestNormalizeStatusCanonicalPassThrough(t *testing.T) {
	canonical := []Status{
		StatusDraft, StatusUnderKAMReview, StatusQueryWithClient,
		StatusPendingCreditReview, StatusCreditQueryWithKAM, StatusInNegotiation,
		StatusSentToNBFC, StatusApproved, StatusRejected, StatusDisbursed,
		StatusWithdrawn, StatusClosed,
	}
	for _, s := range canonical {
		assert.Equal(t, s, NormalizeStatus(string(s)))
	}
}

func TestNormalizeStatusUnknownPassThrough(t *testing.T) {
	assert.Equal(t, Status("some_legacy_value"), NormalizeStatus("Some-Legacy Value"))
}

func TestNormalizeStatusIdempotent(t *testing.T) {
	inputs := []string{
		"", "  ", "DRAFT", "Forwarded-To-Credit", "pending_kam_review",
		"approved", "unknown_token", "Credit Query Raised",
	}
	for _, in := range inputs {
		once := NormalizeStatus(in)
		twice := NormalizeStatus(string(once))
		assert.Equal(t, once, twice, "input=%q", in)
	}
}

package rate

import (
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/shopspring/decimal"
)

// Applies evaluates the policy condition against a disbursement. An empty
// condition always applies. A condition that fails to parse or does not
// evaluate to a boolean is treated as an error, not a silent skip.
func (p *Policy) Applies(clientID, product string, disbursedAmount decimal.Decimal) (bool, error) {
	cond := strings.TrimSpace(p.Condition)
	if cond == "" {
		return true, nil
	}
	expr, err := govaluate.NewEvaluableExpression(cond)
	if err != nil {
		return false, fmt.Errorf("rate policy %s: parse condition: %w", p.ID, err)
	}
	amount, _ := disbursedAmount.Float64()
	result, err := expr.Evaluate(map[string]interface{}{
		"disbursed_amount": amount,
		"product":          product,
		"client_id":        clientID,
	})
	if err != nil {
		return false, fmt.Errorf("rate policy %s: evaluate condition: %w", p.ID, err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("rate policy %s: condition did not evaluate to boolean", p.ID)
	}
	return ok, nil
}

// ValidateCondition checks that a condition expression parses. It does not
// evaluate it; unknown variables only surface at evaluation time.
func ValidateCondition(condition string) error {
	cond := strings.TrimSpace(condition)
	if cond == "" {
		return nil
	}
	if _, err := govaluate.NewEvaluableExpression(cond); err != nil {
		return fmt.Errorf("parse condition: %w", err)
	}
	return nil
}

// Resolve picks the commission rate for a disbursement from the given
// policies, which must already be ordered by priority descending. It returns
// nil when no policy applies.
func Resolve(policies []*Policy, clientID, product string, disbursedAmount decimal.Decimal) (*decimal.Decimal, error) {
	for _, p := range policies {
		if !p.Active {
			continue
		}
		ok, err := p.Applies(clientID, product, disbursedAmount)
		if err != nil {
			return nil, err
		}
		if ok {
			r := p.Rate
			return &r, nil
		}
	}
	return nil, nil
}

package rate

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Policy binds a commission rate to a client, optionally guarded by a
// condition over the disbursement. An empty ClientID makes the policy
// global. Policies are evaluated in descending priority; the first match
// wins. With no match the calculator's default rate applies.
type Policy struct {
	ID       uuid.UUID       `json:"id"`
	ClientID string          `json:"clientId,omitempty"`
	// Condition is a boolean expression over disbursed_amount, product and
	// client_id, e.g. `disbursed_amount >= 5000000 && product == 'LAP'`.
	// Empty means always applicable.
	Condition string          `json:"condition,omitempty"`
	Rate      decimal.Decimal `json:"rate"`
	Priority  int             `json:"priority"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Repository defines persistence for rate policies.
type Repository interface {
	Create(ctx context.Context, p *Policy) error
	// ListForClient returns active policies for the client plus global
	// policies, ordered by priority descending.
	ListForClient(ctx context.Context, clientID string) ([]*Policy, error)
}

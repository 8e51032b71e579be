package ledger

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Filter controls ledger listing. ConfirmedOnly is the default for client
// facing queries; pending and void saga entries stay internal.
type Filter struct {
	ClientID      *string
	LoanFileID    *string
	DisputeStatus *DisputeStatus
	PayoutStatus  *PayoutRequestStatus
	ConfirmedOnly bool
}

// Repository defines persistence for commission ledger entries.
type Repository interface {
	// Create appends a new entry. It returns ErrDuplicateEntry when an entry
	// with the same non-empty idempotency key already exists in a non-void
	// state.
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, error)
	// Update persists dispute, payout and state changes on an entry.
	Update(ctx context.Context, entry *Entry) error
}

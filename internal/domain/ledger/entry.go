package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when the referenced ledger entry does not exist.
	ErrNotFound = errors.New("ledger entry not found")
	// ErrDuplicateEntry is returned when a disbursement entry already exists
	// for the same (loan file, disbursed date) pair.
	ErrDuplicateEntry = errors.New("ledger entry already exists for this disbursement")
)

// EntryType distinguishes credits from debits against a client's commission
// balance. Payout entries are positive (commission owed to the platform),
// Payin entries negative (owed back to the client).
type EntryType string

const (
	EntryTypePayout EntryType = "Payout"
	EntryTypePayin  EntryType = "Payin"
)

// EntryState tracks the disbursement saga. Entries are created pending,
// confirmed once the status flip and history append have succeeded, and
// voided when a later saga step fails.
type EntryState string

const (
	EntryStatePending   EntryState = "pending"
	EntryStateConfirmed EntryState = "confirmed"
	EntryStateVoid      EntryState = "void"
)

// DisputeStatus is the dispute sub-state on a ledger entry.
type DisputeStatus string

const (
	DisputeNone     DisputeStatus = "none"
	DisputeFlagged  DisputeStatus = "flagged"
	DisputeResolved DisputeStatus = "resolved"
	DisputeRejected DisputeStatus = "rejected"
)

// PayoutRequestStatus is the payout sub-state on a ledger entry.
type PayoutRequestStatus string

const (
	PayoutNone      PayoutRequestStatus = "none"
	PayoutRequested PayoutRequestStatus = "requested"
	PayoutPaid      PayoutRequestStatus = "paid"
	PayoutRejected  PayoutRequestStatus = "rejected"
)

// DisputeStateError reports an illegal dispute sub-state transition.
type DisputeStateError struct {
	EntryID uuid.UUID
	Current DisputeStatus
	Op      string
}

func (e *DisputeStateError) Error() string {
	return fmt.Sprintf("cannot %s ledger entry %s in dispute state %q", e.Op, e.EntryID, e.Current)
}

// Dispute holds the dispute record embedded on a ledger entry.
type Dispute struct {
	Reason          string           `json:"reason"`
	RaisedBy        string           `json:"raisedBy"`
	RaisedAt        time.Time        `json:"raisedAt"`
	ResolvedBy      *string          `json:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time       `json:"resolvedAt,omitempty"`
	ResolutionNotes *string          `json:"resolutionNotes,omitempty"`
	AdjustedAmount  *decimal.Decimal `json:"adjustedAmount,omitempty"`
}

// Entry is one row in the commission ledger. Disbursement entries carry a
// disbursed amount and rate; manual corrections and payout settlements leave
// both nil. Entries are never deleted.
type Entry struct {
	ID              uuid.UUID           `json:"id"`
	ClientID        string              `json:"clientId"`
	LoanFileID      string              `json:"loanFileId"`
	Date            time.Time           `json:"date"`
	DisbursedAmount *decimal.Decimal    `json:"disbursedAmount,omitempty"`
	CommissionRate  *decimal.Decimal    `json:"commissionRate,omitempty"`
	PayoutAmount    decimal.Decimal     `json:"payoutAmount"`
	EntryType       EntryType           `json:"entryType"`
	Description     string              `json:"description"`
	State           EntryState          `json:"state"`
	DisputeStatus   DisputeStatus       `json:"disputeStatus"`
	PayoutStatus    PayoutRequestStatus `json:"payoutRequestStatus"`
	Dispute         *Dispute            `json:"dispute,omitempty"`
	// IdempotencyKey is loanFileID + disbursedDate for disbursement entries,
	// empty for manual and settlement entries.
	IdempotencyKey string    `json:"-"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CanFlag reports whether a new dispute may be raised on the entry. Flagging
// again after a resolution re-opens the dispute; flagging a flagged entry is
// rejected.
func (e *Entry) CanFlag() bool {
	switch e.DisputeStatus {
	case DisputeNone, DisputeResolved, DisputeRejected:
		return true
	}
	return false
}

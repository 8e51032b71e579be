package loan

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when the referenced application does not exist.
	ErrNotFound = errors.New("loan application not found")
)

// ConflictError is returned when a status write loses a concurrent-update
// race. The caller must re-read the application and retry.
type ConflictError struct {
	FileID  string
	Version int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("loan application %s modified concurrently (stale version %d)", e.FileID, e.Version)
}

// Application is the canonical, strongly-typed view of a loan application.
// Adaptation between this struct and the record store's loose schema lives
// entirely in the recordstore mapper.
type Application struct {
	ID              uuid.UUID        `json:"id"`
	FileID          string           `json:"fileId"`
	ClientID        string           `json:"clientId"`
	// KamID is the key account manager assigned to the file, when any.
	KamID           *string          `json:"kamId,omitempty"`
	ProductID       string           `json:"productId"`
	Status          Status           `json:"status"`
	RequestedAmount decimal.Decimal  `json:"requestedAmount"`
	ApprovedAmount  *decimal.Decimal `json:"approvedAmount,omitempty"`
	DisbursedAmount *decimal.Decimal `json:"disbursedAmount,omitempty"`
	DecisionReason  *string          `json:"decisionReason,omitempty"`
	// Version guards against concurrent status writes; it increments on
	// every upsert and stale writers fail with ConflictError.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HistoryEntry is one immutable status-transition record. Entries are only
// ever appended; the chronologically last entry's ToStatus must equal the
// application's current status.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	FileID     string    `json:"fileId"`
	FromStatus Status    `json:"fromStatus"`
	ToStatus   Status    `json:"toStatus"`
	ChangedBy  string    `json:"changedBy"`
	ChangedAt  time.Time `json:"changedAt"`
	Reason     *string   `json:"reason,omitempty"`
}

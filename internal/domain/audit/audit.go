package audit

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an audit log does not exist.
var ErrNotFound = errors.New("audit log not found")

// EntityType represents the type of entity being audited.
type EntityType string

const (
	EntityTypeApplication EntityType = "APPLICATION"
	EntityTypeLedgerEntry EntityType = "LEDGER_ENTRY"
)

// Action represents the audited operation.
type Action string

const (
	ActionTransition     Action = "TRANSITION"
	ActionDisburse       Action = "DISBURSE"
	ActionLedgerCreate   Action = "LEDGER_CREATE"
	ActionDisputeFlag    Action = "DISPUTE_FLAG"
	ActionDisputeResolve Action = "DISPUTE_RESOLVE"
	ActionPayoutRequest  Action = "PAYOUT_REQUEST"
	ActionPayoutApprove  Action = "PAYOUT_APPROVE"
	ActionPayoutReject   Action = "PAYOUT_REJECT"
)

// Log is one immutable audit record. The Resolved flag marks entries whose
// follow-up (a dispute, a failed saga step) has been closed out.
type Log struct {
	ID         int64      `json:"id"`
	AuditID    uuid.UUID  `json:"auditId"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Action     Action     `json:"action"`
	Actor      string     `json:"actor"`
	ActorRoles []string   `json:"actorRoles,omitempty"`
	Message    string     `json:"message,omitempty"`
	Resolved   bool       `json:"resolved"`
	Signature  []byte     `json:"signature,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Entry is the input for creating an audit log.
type Entry struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	Actor      string
	ActorRoles []string
	Message    string
	Resolved   bool
}

// NewLog materializes an audit log from an entry.
func NewLog(e *Entry) *Log {
	return &Log{
		AuditID:    uuid.New(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Actor:      e.Actor,
		ActorRoles: e.ActorRoles,
		Message:    e.Message,
		Resolved:   e.Resolved,
		CreatedAt:  time.Now().UTC(),
	}
}

// QueryFilter represents filters for querying audit logs.
type QueryFilter struct {
	EntityType *EntityType
	EntityID   *string
	Action     *Action
	Actor      *string
	StartTime  *time.Time
	EndTime    *time.Time
}

// Cursor is a pagination cursor for audit queries.
type Cursor struct {
	CreatedAt time.Time `json:"ts"`
	ID        int64     `json:"id"`
}

// Repository defines persistence for audit logs. The core only appends and
// queries; nothing ever updates or deletes a log.
type Repository interface {
	Create(ctx context.Context, log *Log) error
	GetByID(ctx context.Context, auditID uuid.UUID) (*Log, error)
	Query(ctx context.Context, filter QueryFilter, cursor *Cursor, limit int) ([]*Log, *Cursor, error)
	GetByEntityID(ctx context.Context, entityType EntityType, entityID string) ([]*Log, error)
}

package notification

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credflow/credflow/internal/domain/loan"
)

// Topics for lifecycle events. Kafka topics and SSE event names share these.
const (
	TopicStatusChanged     = "loan.status_changed"
	TopicDisbursed         = "loan.disbursed"
	TopicCommissionCreated = "commission.created"
	TopicPayoutApproved    = "payout.approved"
	TopicPayoutRejected    = "payout.rejected"
)

// StatusChangedEvent is published after a successful transition.
type StatusChangedEvent struct {
	FileID    string      `json:"fileId"`
	ClientID  string      `json:"clientId"`
	From      loan.Status `json:"from"`
	To        loan.Status `json:"to"`
	ChangedBy string      `json:"changedBy"`
	ChangedAt time.Time   `json:"changedAt"`
}

// DisbursementEvent is published when an application reaches disbursed.
type DisbursementEvent struct {
	FileID          string          `json:"fileId"`
	ClientID        string          `json:"clientId"`
	DisbursedAmount decimal.Decimal `json:"disbursedAmount"`
	DisbursedDate   time.Time       `json:"disbursedDate"`
}

// CommissionEvent is published after a ledger entry is confirmed.
type CommissionEvent struct {
	EntryID      string          `json:"entryId"`
	ClientID     string          `json:"clientId"`
	LoanFileID   string          `json:"loanFileId"`
	PayoutAmount decimal.Decimal `json:"payoutAmount"`
	EntryType    string          `json:"entryType"`
}

// PayoutEvent is published on payout approval or rejection.
type PayoutEvent struct {
	EntryID  string `json:"entryId"`
	ClientID string `json:"clientId"`
	Actor    string `json:"actor"`
	Note     string `json:"note,omitempty"`
}

// Dispatcher delivers lifecycle events to interested parties. Delivery is
// best effort: implementations log failures and never return them into the
// mutation path.
type Dispatcher interface {
	NotifyStatusChanged(ctx context.Context, ev StatusChangedEvent)
	NotifyDisbursement(ctx context.Context, ev DisbursementEvent)
	NotifyCommissionCreated(ctx context.Context, ev CommissionEvent)
	NotifyPayoutApproved(ctx context.Context, ev PayoutEvent)
	NotifyPayoutRejected(ctx context.Context, ev PayoutEvent)
}

// NopDispatcher discards all events. Used in tests and when no transport is
// configured.
type NopDispatcher struct{}

func (NopDispatcher) NotifyStatusChanged(context.Context, StatusChangedEvent)   {}
func (NopDispatcher) NotifyDisbursement(context.Context, DisbursementEvent)     {}
func (NopDispatcher) NotifyCommissionCreated(context.Context, CommissionEvent)  {}
func (NopDispatcher) NotifyPayoutApproved(context.Context, PayoutEvent)         {}
func (NopDispatcher) NotifyPayoutRejected(context.Context, PayoutEvent)         {}

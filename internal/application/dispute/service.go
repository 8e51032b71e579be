package dispute

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	appAudit "github.com/credflow/credflow/internal/application/audit"
	"github.com/credflow/credflow/internal/domain/audit"
	"github.com/credflow/credflow/internal/domain/identity"
	"github.com/credflow/credflow/internal/domain/ledger"
)

// ValidationError reports malformed dispute input.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// Service manages the dispute lifecycle on ledger entries. An entry can be
// flagged again after a resolution, so the cycle none -> flagged ->
// resolved/rejected may repeat; only one dispute is open at a time.
type Service struct {
	ledgerRepo ledger.Repository
	auditSvc   *appAudit.Service
	logger     zerolog.Logger
}

func NewService(ledgerRepo ledger.Repository, auditSvc *appAudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		ledgerRepo: ledgerRepo,
		auditSvc:   auditSvc,
		logger:     logger.With().Str("service", "dispute").Logger(),
	}
}

// Flag opens a dispute on a ledger entry. Flagging an already-flagged entry
// is a state error, not an overwrite.
func (s *Service) Flag(ctx context.Context, entryID, reason string, actor identity.Identity) (*ledger.Entry, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Detail: "must not be empty"}
	}

	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, &ValidationError{Field: "entryId", Detail: "must be a UUID"}
	}
	entry, err := s.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.CanFlag() {
		return nil, &ledger.DisputeStateError{EntryID: id, Current: entry.DisputeStatus, Op: "flag"}
	}

	now := time.Now().UTC()
	entry.DisputeStatus = ledger.DisputeFlagged
	entry.Dispute = &ledger.Dispute{
		Reason:   reason,
		RaisedBy: actor.ActorString(),
		RaisedAt: now,
	}
	entry.UpdatedAt = now

	if err := s.ledgerRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLedgerEntry,
		EntityID:   entryID,
		Action:     audit.ActionDisputeFlag,
		Actor:      actor.ActorString(),
		ActorRoles: []string{string(actor.Role)},
		Message:    reason,
	})

	s.logger.Info().
		Str("entryId", entryID).
		Str("actor", actor.ActorString()).
		Msg("dispute flagged")

	return entry, nil
}

// Resolution is the outcome of a flagged dispute.
type Resolution struct {
	// Accepted closes the dispute as resolved; false rejects it.
	Accepted bool
	Notes    string
	// AdjustedAmount, when set on an accepted resolution, replaces the
	// entry's payout amount.
	AdjustedAmount *decimal.Decimal
}

// Resolve closes a flagged dispute. Only credit_team and admin may resolve.
func (s *Service) Resolve(ctx context.Context, entryID string, res Resolution, actor identity.Identity) (*ledger.Entry, error) {
	if actor.Role != identity.RoleCreditTeam && actor.Role != identity.RoleAdmin {
		return nil, identity.ErrForbidden
	}

	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, &ValidationError{Field: "entryId", Detail: "must be a UUID"}
	}
	entry, err := s.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.DisputeStatus != ledger.DisputeFlagged {
		return nil, &ledger.DisputeStateError{EntryID: id, Current: entry.DisputeStatus, Op: "resolve"}
	}
	// Rows migrated from the legacy store can be flagged without a dispute
	// payload.
	if entry.Dispute == nil {
		entry.Dispute = &ledger.Dispute{}
	}

	now := time.Now().UTC()
	action := audit.ActionDisputeResolve
	if res.Accepted {
		entry.DisputeStatus = ledger.DisputeResolved
		if res.AdjustedAmount != nil {
			entry.Dispute.AdjustedAmount = res.AdjustedAmount
			entry.PayoutAmount = *res.AdjustedAmount
		}
	} else {
		entry.DisputeStatus = ledger.DisputeRejected
	}
	resolvedBy := actor.ActorString()
	entry.Dispute.ResolvedBy = &resolvedBy
	entry.Dispute.ResolvedAt = &now
	if res.Notes != "" {
		entry.Dispute.ResolutionNotes = &res.Notes
	}
	entry.UpdatedAt = now

	if err := s.ledgerRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLedgerEntry,
		EntityID:   entryID,
		Action:     action,
		Actor:      resolvedBy,
		ActorRoles: []string{string(actor.Role)},
		Message:    fmt.Sprintf("accepted=%t %s", res.Accepted, res.Notes),
		Resolved:   res.Accepted,
	})

	s.logger.Info().
		Str("entryId", entryID).
		Bool("accepted", res.Accepted).
		Str("actor", resolvedBy).
		Msg("dispute resolved")

	return entry, nil
}

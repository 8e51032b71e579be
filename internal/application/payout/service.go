package payout

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
	"github.com/credflow/credflow/internal/domain/notification"
)

// ValidationError reports malformed payout input.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// StateError reports a payout operation applied to an entry in the wrong
// payout state.
type StateError struct {
	EntryID string
	Current ledger.PayoutRequestStatus
	Op      string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s payout on entry %s in state %s", e.Op, e.EntryID, e.Current)
}

// Service runs the payout approval workflow. An approval settles the entry
// by writing a paired settlement entry for the negated amount, so the
// client's confirmed balance returns to zero for that commission.
type Service struct {
	ledgerRepo ledger.Repository
	auditSvc   *appAudit.Service
	dispatcher notification.Dispatcher
	logger     zerolog.Logger
}

func NewService(ledgerRepo ledger.Repository, auditSvc *appAudit.Service, dispatcher notification.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		ledgerRepo: ledgerRepo,
		auditSvc:   auditSvc,
		dispatcher: dispatcher,
		logger:     logger.With().Str("service", "payout").Logger(),
	}
}

// Request asks for payout of a confirmed ledger entry. A rejected request
// may be re-raised; a flagged entry must have its dispute closed first.
func (s *Service) Request(ctx context.Context, entryID string, actor identity.Identity) (*ledger.Entry, error) {
	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, &ValidationError{Field: "entryId", Detail: "must be a UUID"}
	}
	entry, err := s.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.State != ledger.EntryStateConfirmed {
		return nil, &StateError{EntryID: entryID, Current: entry.PayoutStatus, Op: "request"}
	}
	if entry.DisputeStatus == ledger.DisputeFlagged {
		return nil, &ledger.DisputeStateError{EntryID: id, Current: entry.DisputeStatus, Op: "request payout on"}
	}
	if entry.PayoutStatus != ledger.PayoutNone && entry.PayoutStatus != ledger.PayoutRejected {
		return nil, &StateError{EntryID: entryID, Current: entry.PayoutStatus, Op: "request"}
	}

	entry.PayoutStatus = ledger.PayoutRequested
	entry.UpdatedAt = time.Now().UTC()
	if err := s.ledgerRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLedgerEntry,
		EntityID:   entryID,
		Action:     audit.ActionPayoutRequest,
		Actor:      actor.ActorString(),
		ActorRoles: []string{string(actor.Role)},
	})
	s.logger.Info().Str("entryId", entryID).Str("actor", actor.ActorString()).Msg("payout requested")
	return entry, nil
}

// Approve settles a requested payout. It writes a settlement entry for the
// negated approved amount and marks both entries paid. The approved amount
// may be less than the entry amount for a partial settlement.
func (s *Service) Approve(ctx context.Context, entryID string, approvedAmount decimal.Decimal, note string, actor identity.Identity) (*ledger.Entry, *ledger.Entry, error) {
	if actor.Role != identity.RoleCreditTeam && actor.Role != identity.RoleAdmin {
		return nil, nil, identity.ErrForbidden
	}
	if !approvedAmount.IsPositive() {
		return nil, nil, &ValidationError{Field: "approvedAmount", Detail: "must be a positive amount"}
	}

	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, nil, &ValidationError{Field: "entryId", Detail: "must be a UUID"}
	}
	entry, err := s.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if entry.PayoutStatus != ledger.PayoutRequested {
		return nil, nil, &StateError{EntryID: entryID, Current: entry.PayoutStatus, Op: "approve"}
	}

	description := fmt.Sprintf("Payout settlement for entry %s", entry.ID)
	if note = strings.TrimSpace(note); note != "" {
		description += ": " + note
	}
	settlement := ledger.NewManualEntry(
		entry.ClientID,
		entry.LoanFileID,
		approvedAmount.Neg(),
		description,
		actor.ActorString(),
	)
	settlement.PayoutStatus = ledger.PayoutPaid
	if err := s.ledgerRepo.Create(ctx, settlement); err != nil {
		return nil, nil, err
	}

	entry.PayoutStatus = ledger.PayoutPaid
	entry.UpdatedAt = time.Now().UTC()
	if err := s.ledgerRepo.Update(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("settlement %s written but entry update failed: %w", settlement.ID, err)
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLedgerEntry,
		EntityID:   entryID,
		Action:     audit.ActionPayoutApprove,
		Actor:      actor.ActorString(),
		ActorRoles: []string{string(actor.Role)},
		Message:    fmt.Sprintf("settled %s by %s", approvedAmount, settlement.ID),
	})
	s.dispatcher.NotifyPayoutApproved(ctx, notification.PayoutEvent{
		EntryID:  entry.ID.String(),
		ClientID: entry.ClientID,
	})

	s.logger.Info().
		Str("entryId", entryID).
		Str("settlementId", settlement.ID.String()).
		Str("actor", actor.ActorString()).
		Msg("payout approved")

	return entry, settlement, nil
}

// Reject declines a requested payout. The client may request again later.
func (s *Service) Reject(ctx context.Context, entryID, reason string, actor identity.Identity) (*ledger.Entry, error) {
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
	if entry.PayoutStatus != ledger.PayoutRequested {
		return nil, &StateError{EntryID: entryID, Current: entry.PayoutStatus, Op: "reject"}
	}

	entry.PayoutStatus = ledger.PayoutRejected
	entry.UpdatedAt = time.Now().UTC()
	if err := s.ledgerRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLedgerEntry,
		EntityID:   entryID,
		Action:     audit.ActionPayoutReject,
		Actor:      actor.ActorString(),
		ActorRoles: []string{string(actor.Role)},
		Message:    reason,
	})
	s.dispatcher.NotifyPayoutRejected(ctx, notification.PayoutEvent{
		EntryID:  entry.ID.String(),
		ClientID: entry.ClientID,
	})

	s.logger.Info().Str("entryId", entryID).Str("actor", actor.ActorString()).Msg("payout rejected")
	return entry, nil
}

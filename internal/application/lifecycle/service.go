package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	appAudit "github.com/credflow/credflow/internal/application/audit"
	"github.com/credflow/credflow/internal/domain/audit"
	"github.com/credflow/credflow/internal/domain/identity"
	"github.com/credflow/credflow/internal/domain/ledger"
	"github.com/credflow/credflow/internal/domain/loan"
	"github.com/credflow/credflow/internal/domain/notification"
	"github.com/credflow/credflow/internal/domain/rate"
)

// ValidationError reports malformed input on a lifecycle operation.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// Service drives the loan-application state machine: validated status
// transitions, the append-only history trail, and the disbursement saga
// that derives commission ledger entries.
type Service struct {
	loanRepo    loan.Repository
	historyRepo loan.HistoryRepository
	ledgerRepo  ledger.Repository
	rateRepo    rate.Repository
	calc        *ledger.Calculator
	auditSvc    *appAudit.Service
	dispatcher  notification.Dispatcher
	logger      zerolog.Logger
}

// NewService creates a lifecycle service.
func NewService(
	loanRepo loan.Repository,
	historyRepo loan.HistoryRepository,
	ledgerRepo ledger.Repository,
	rateRepo rate.Repository,
	calc *ledger.Calculator,
	auditSvc *appAudit.Service,
	dispatcher notification.Dispatcher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		loanRepo:    loanRepo,
		historyRepo: historyRepo,
		ledgerRepo:  ledgerRepo,
		rateRepo:    rateRepo,
		calc:        calc,
		auditSvc:    auditSvc,
		dispatcher:  dispatcher,
		logger:      logger.With().Str("service", "lifecycle").Logger(),
	}
}

// TransitionParams carries the optional payload of a status transition.
type TransitionParams struct {
	Reason *string
	// ApprovedAmount is recorded on the sent_to_nbfc -> approved edge.
	ApprovedAmount *decimal.Decimal
}

// Transition moves an application to the target status on behalf of the
// actor. The stored status is normalized before validation, so records
// carrying legacy aliases keep working. A failed validation leaves the
// application and its history untouched.
//
// Disbursement is not reachable through this method; it carries money and
// runs as a saga in MarkDisbursed.
func (s *Service) Transition(ctx context.Context, fileID string, target loan.Status, actor identity.Identity, params TransitionParams) (*loan.Application, error) {
	target = loan.NormalizeStatus(string(target))
	if target == loan.StatusDisbursed {
		return nil, &ValidationError{Field: "target", Detail: "disbursement requires an amount; use the disburse operation"}
	}

	app, err := s.loanRepo.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	current := loan.NormalizeStatus(string(app.Status))

	if err := loan.ValidateTransition(current, target, actor.Role); err != nil {
		s.logger.Info().
			Str("fileId", fileID).
			Str("from", string(current)).
			Str("to", string(target)).
			Str("role", string(actor.Role)).
			Err(err).
			Msg("transition denied")
		return nil, err
	}

	now := time.Now().UTC()
	app.Status = target
	app.UpdatedAt = now
	switch target {
	case loan.StatusApproved:
		app.ApprovedAmount = params.ApprovedAmount
	case loan.StatusRejected:
		app.DecisionReason = params.Reason
	}

	if err := s.loanRepo.UpdateStatus(ctx, app); err != nil {
		return nil, err
	}

	if err := s.appendHistory(ctx, &loan.HistoryEntry{
		FileID:     fileID,
		FromStatus: current,
		ToStatus:   target,
		ChangedBy:  actor.ActorString(),
		ChangedAt:  now,
		Reason:     params.Reason,
	}); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeApplication,
		EntityID:   fileID,
		Action:     audit.ActionTransition,
		Actor:      actor.ActorString(),
		ActorRoles: []string{string(actor.Role)},
		Message:    fmt.Sprintf("%s -> %s", current, target),
	})
	s.dispatcher.NotifyStatusChanged(ctx, notification.StatusChangedEvent{
		FileID:    fileID,
		ClientID:  app.ClientID,
		From:      current,
		To:        target,
		ChangedBy: actor.ActorString(),
		ChangedAt: now,
	})

	s.logger.Info().
		Str("fileId", fileID).
		Str("from", string(current)).
		Str("to", string(target)).
		Str("actor", actor.ActorString()).
		Msg("status transitioned")

	return app, nil
}

// MarkDisbursed runs the disbursement saga: create a pending ledger entry
// (idempotency-guarded on file + date), flip the status, append history,
// then confirm the entry. A failure flipping the status voids the pending
// entry; a persistent failure on a later step leaves the entry pending and
// surfaces the error so an operator can confirm or void it. Nothing is
// silently abandoned.
func (s *Service) MarkDisbursed(ctx context.Context, fileID string, amount decimal.Decimal, date time.Time, actor identity.Identity) (*loan.Application, *ledger.Entry, error) {
	if !amount.IsPositive() {
		return nil, nil, &ValidationError{Field: "disbursedAmount", Detail: "must be a positive amount"}
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	app, err := s.loanRepo.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	current := loan.NormalizeStatus(string(app.Status))

	if err := loan.ValidateTransition(current, loan.StatusDisbursed, actor.Role); err != nil {
		return nil, nil, err
	}

	clientRate, err := s.resolveRate(ctx, app, amount)
	if err != nil {
		return nil, nil, err
	}

	entry := s.calc.Calculate(fileID, app.ClientID, amount, date, clientRate, actor.ActorString())
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	app.Status = loan.StatusDisbursed
	app.DisbursedAmount = &amount
	app.UpdatedAt = now
	if err := s.loanRepo.UpdateStatus(ctx, app); err != nil {
		s.voidEntry(ctx, entry, "status write failed")
		return nil, nil, err
	}

	if err := s.appendHistory(ctx, &loan.HistoryEntry{
		FileID:     fileID,
		FromStatus: current,
		ToStatus:   loan.StatusDisbursed,
		ChangedBy:  actor.ActorString(),
		ChangedAt:  now,
	}); err != nil {
		return nil, nil, fmt.Errorf("disbursed but history append failed, ledger entry %s left pending: %w", entry.ID, err)
	}

	entry.State = ledger.EntryStateConfirmed
	entry.UpdatedAt = time.Now().UTC()
	if err := s.updateEntryWithRetry(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("disbursed but ledger entry %s left pending: %w", entry.ID, err)
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeApplication,
		EntityID:   fileID,
		Action:     audit.ActionDisburse,
		Actor:      actor.ActorString(),
		ActorRoles: []string{string(actor.Role)},
		Message:    fmt.Sprintf("disbursed %s", amount.StringFixed(2)),
	})
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLedgerEntry,
		EntityID:   entry.ID.String(),
		Action:     audit.ActionLedgerCreate,
		Actor:      actor.ActorString(),
		ActorRoles: []string{string(actor.Role)},
		Message:    entry.Description,
	})
	s.dispatcher.NotifyDisbursement(ctx, notification.DisbursementEvent{
		FileID:          fileID,
		ClientID:        app.ClientID,
		DisbursedAmount: amount,
		DisbursedDate:   date,
	})
	s.dispatcher.NotifyCommissionCreated(ctx, notification.CommissionEvent{
		EntryID:      entry.ID.String(),
		ClientID:     entry.ClientID,
		LoanFileID:   entry.LoanFileID,
		PayoutAmount: entry.PayoutAmount,
		EntryType:    string(entry.EntryType),
	})

	s.logger.Info().
		Str("fileId", fileID).
		Str("entryId", entry.ID.String()).
		Str("payoutAmount", entry.PayoutAmount.String()).
		Msg("disbursement recorded")

	return app, entry, nil
}

// Get returns one application by file ID.
func (s *Service) Get(ctx context.Context, fileID string) (*loan.Application, error) {
	return s.loanRepo.GetByFileID(ctx, fileID)
}

// List returns applications matching the filter.
func (s *Service) List(ctx context.Context, filter loan.Filter, limit, offset int) ([]*loan.Application, error) {
	return s.loanRepo.List(ctx, filter, limit, offset)
}

// History returns the transition trail for a file ordered by ChangedAt
// ascending. Storage order is not trusted.
func (s *Service) History(ctx context.Context, fileID string) ([]*loan.HistoryEntry, error) {
	entries, err := s.historyRepo.ListByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ChangedAt.Before(entries[j].ChangedAt)
	})
	return entries, nil
}

// AllowedTargets returns the transitions the actor may drive from the
// application's current status.
func (s *Service) AllowedTargets(ctx context.Context, fileID string, actor identity.Identity) ([]loan.Status, error) {
	app, err := s.loanRepo.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return loan.AllowedTargets(loan.NormalizeStatus(string(app.Status)), actor.Role), nil
}

func (s *Service) resolveRate(ctx context.Context, app *loan.Application, amount decimal.Decimal) (*decimal.Decimal, error) {
	policies, err := s.rateRepo.ListForClient(ctx, app.ClientID)
	if err != nil {
		return nil, fmt.Errorf("list rate policies: %w", err)
	}
	r, err := rate.Resolve(policies, app.ClientID, app.ProductID, amount)
	if err != nil {
		// A broken policy must not silently produce a wrong commission.
		return nil, err
	}
	return r, nil
}

func (s *Service) appendHistory(ctx context.Context, entry *loan.HistoryEntry) error {
	err := s.historyRepo.Append(ctx, entry)
	if err == nil {
		return nil
	}
	s.logger.Warn().Err(err).Str("fileId", entry.FileID).Msg("history append failed, retrying")
	if err = s.historyRepo.Append(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("fileId", entry.FileID).Msg("history append failed")
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *Service) updateEntryWithRetry(ctx context.Context, entry *ledger.Entry) error {
	err := s.ledgerRepo.Update(ctx, entry)
	if err == nil {
		return nil
	}
	s.logger.Warn().Err(err).Str("entryId", entry.ID.String()).Msg("ledger update failed, retrying")
	if err = s.ledgerRepo.Update(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("entryId", entry.ID.String()).Msg("ledger update failed")
		return err
	}
	return nil
}

func (s *Service) voidEntry(ctx context.Context, entry *ledger.Entry, why string) {
	entry.State = ledger.EntryStateVoid
	entry.UpdatedAt = time.Now().UTC()
	if err := s.updateEntryWithRetry(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("entryId", entry.ID.String()).
			Str("cause", why).
			Msg("failed to void pending ledger entry")
	}
}

package commission

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
	"github.com/credflow/credflow/internal/domain/rate"
)

// ValidationError reports malformed ledger or rate-policy input.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// Service serves the commission ledger: listings, balances, manual
// correction entries, and rate policy management.
type Service struct {
	ledgerRepo ledger.Repository
	rateRepo   rate.Repository
	calc       *ledger.Calculator
	auditSvc   *appAudit.Service
	logger     zerolog.Logger
}

func NewService(ledgerRepo ledger.Repository, rateRepo rate.Repository, calc *ledger.Calculator, auditSvc *appAudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		ledgerRepo: ledgerRepo,
		rateRepo:   rateRepo,
		calc:       calc,
		auditSvc:   auditSvc,
		logger:     logger.With().Str("service", "commission").Logger(),
	}
}

// Get returns one ledger entry.
func (s *Service) Get(ctx context.Context, entryID string) (*ledger.Entry, error) {
	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, &ValidationError{Field: "entryId", Detail: "must be a UUID"}
	}
	return s.ledgerRepo.GetByID(ctx, id)
}

// List returns ledger entries matching the filter. Clients see only their
// own entries; the filter is forced to their client ID.
func (s *Service) List(ctx context.Context, filter ledger.Filter, actor identity.Identity, limit, offset int) ([]*ledger.Entry, error) {
	if actor.Role == identity.RoleClient && actor.ClientID != "" {
		filter.ClientID = &actor.ClientID
	}
	return s.ledgerRepo.List(ctx, filter, limit, offset)
}

// Balance sums a client's confirmed entries. Pending and void entries never
// count toward the balance.
func (s *Service) Balance(ctx context.Context, clientID string) (decimal.Decimal, error) {
	entries, err := s.ledgerRepo.List(ctx, ledger.Filter{ClientID: &clientID, ConfirmedOnly: true}, 0, 0)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.PayoutAmount)
	}
	return total, nil
}

// CreateCorrection records a manual signed correction entry. Admin only.
// The amount arrives as a string so callers cannot lose precision on the
// way in.
func (s *Service) CreateCorrection(ctx context.Context, clientID, loanFileID, amountStr, description string, actor identity.Identity) (*ledger.Entry, error) {
	if actor.Role != identity.RoleAdmin {
		return nil, identity.ErrForbidden
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, &ValidationError{Field: "clientId", Detail: "must not be empty"}
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(amountStr))
	if err != nil {
		return nil, &ValidationError{Field: "amount", Detail: fmt.Sprintf("%q is not a decimal amount", amountStr)}
	}
	if amount.IsZero() {
		return nil, &ValidationError{Field: "amount", Detail: "must not be zero"}
	}
	if strings.TrimSpace(description) == "" {
		return nil, &ValidationError{Field: "description", Detail: "must not be empty"}
	}

	entry := ledger.NewManualEntry(clientID, loanFileID, amount, description, actor.ActorString())
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLedgerEntry,
		EntityID:   entry.ID.String(),
		Action:     audit.ActionLedgerCreate,
		Actor:      actor.ActorString(),
		ActorRoles: []string{string(actor.Role)},
		Message:    fmt.Sprintf("manual correction %s", amount.StringFixed(2)),
	})

	s.logger.Info().
		Str("entryId", entry.ID.String()).
		Str("clientId", clientID).
		Str("amount", amount.String()).
		Msg("manual correction recorded")

	return entry, nil
}

// PolicyInput is the payload for creating a rate policy.
type PolicyInput struct {
	ClientID  string
	Condition string
	Rate      string
	Priority  int
}

// CreateRatePolicy registers a commission rate policy. Admin only. The
// condition must parse before the policy is accepted.
func (s *Service) CreateRatePolicy(ctx context.Context, in PolicyInput, actor identity.Identity) (*rate.Policy, error) {
	if actor.Role != identity.RoleAdmin {
		return nil, identity.ErrForbidden
	}
	r, err := decimal.NewFromString(strings.TrimSpace(in.Rate))
	if err != nil {
		return nil, &ValidationError{Field: "rate", Detail: fmt.Sprintf("%q is not a decimal rate", in.Rate)}
	}
	if err := rate.ValidateCondition(in.Condition); err != nil {
		return nil, &ValidationError{Field: "condition", Detail: err.Error()}
	}

	policy := &rate.Policy{
		ID:        uuid.New(),
		ClientID:  strings.TrimSpace(in.ClientID),
		Condition: strings.TrimSpace(in.Condition),
		Rate:      r,
		Priority:  in.Priority,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.rateRepo.Create(ctx, policy); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("policyId", policy.ID.String()).
		Str("clientId", policy.ClientID).
		Str("rate", policy.Rate.String()).
		Msg("rate policy created")

	return policy, nil
}

// DefaultRate exposes the configured fallback commission rate.
func (s *Service) DefaultRate() decimal.Decimal {
	return s.calc.DefaultRate()
}

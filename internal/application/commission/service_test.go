package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appAudit "github.com/credflow/credflow/internal/application/audit"
	"github.com/credflow/credflow/internal/domain/audit"
	"github.com/credflow/credflow/internal/domain/identity"
	"github.com/credflow/credflow/internal/domain/ledger"
	ledgermocks "github.com/credflow/credflow/internal/domain/ledger/mocks"
	"github.com/credflow/credflow/internal/domain/rate"
	ratemocks "github.com/credflow/credflow/internal/domain/rate/mocks"
)

type stubAuditRepo struct{}

func (stubAuditRepo) Create(context.Context, *audit.Log) error { return nil }
func (stubAuditRepo) GetByID(context.Context, uuid.UUID) (*audit.Log, error) {
	return nil, audit.ErrNotFound
}
func (stubAuditRepo) Query(context.Context, audit.QueryFilter, *audit.Cursor, int) ([]*audit.Log, *audit.Cursor, error) {
	return nil, nil, nil
}
func (stubAuditRepo) GetByEntityID(context.Context, audit.EntityType, string) ([]*audit.Log, error) {
	return nil, nil
}

func newService(t *testing.T) (*Service, *ledgermocks.MockRepository, *ratemocks.MockRepository) {
	ctrl := gomock.NewController(t)
	ledgerRepo := ledgermocks.NewMockRepository(ctrl)
	rateRepo := ratemocks.NewMockRepository(ctrl)
	svc := NewService(ledgerRepo, rateRepo, ledger.NewCalculator(decimal.NewFromFloat(1.5)),
		appAudit.NewService(stubAuditRepo{}, zerolog.Nop(), nil), zerolog.Nop())
	return svc, ledgerRepo, rateRepo
}

var admin = identity.Identity{Email: "admin@credflow.in", Role: identity.RoleAdmin}

func TestListScopesClientToOwnEntries(t *testing.T) {
	svc, ledgerRepo, _ := newService(t)
	ctx := context.Background()
	client := identity.Identity{Email: "a@acme.in", Role: identity.RoleClient, ClientID: "client-1"}

	ledgerRepo.EXPECT().List(ctx, gomock.Any(), 50, 0).DoAndReturn(
		func(_ context.Context, f ledger.Filter, _, _ int) ([]*ledger.Entry, error) {
			require.NotNil(t, f.ClientID)
			assert.Equal(t, "client-1", *f.ClientID)
			return nil, nil
		})

	other := "client-2"
	_, err := svc.List(ctx, ledger.Filter{ClientID: &other}, client, 50, 0)
	require.NoError(t, err)
}

func TestBalanceSumsConfirmedEntries(t *testing.T) {
	svc, ledgerRepo, _ := newService(t)
	ctx := context.Background()

	ledgerRepo.EXPECT().List(ctx, gomock.Any(), 0, 0).DoAndReturn(
		func(_ context.Context, f ledger.Filter, _, _ int) ([]*ledger.Entry, error) {
			assert.True(t, f.ConfirmedOnly)
			return []*ledger.Entry{
				{PayoutAmount: decimal.NewFromInt(7500)},
				{PayoutAmount: decimal.NewFromInt(-7500)},
				{PayoutAmount: decimal.NewFromInt(12000)},
			}, nil
		})

	total, err := svc.Balance(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(12000)), "got %s", total)
}

func TestCreateCorrectionParsesSignedAmount(t *testing.T) {
	svc, ledgerRepo, _ := newService(t)
	ctx := context.Background()

	ledgerRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, e *ledger.Entry) error {
			assert.True(t, e.PayoutAmount.Equal(decimal.RequireFromString("-250.50")))
			assert.Equal(t, ledger.EntryTypePayin, e.EntryType)
			assert.Equal(t, ledger.EntryStateConfirmed, e.State)
			return nil
		})

	entry, err := svc.CreateCorrection(ctx, "client-1", "LF-1", "-250.50", "clawback on cancelled file", admin)
	require.NoError(t, err)
	assert.Equal(t, "admin:admin@credflow.in", entry.CreatedBy)
}

func TestCreateCorrectionRejectsMalformedAmount(t *testing.T) {
	svc, _, _ := newService(t)

	for _, bad := range []string{"", "abc", "12,000", "1.2.3"} {
		_, err := svc.CreateCorrection(context.Background(), "client-1", "", bad, "fix", admin)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "amount %q", bad)
		assert.Equal(t, "amount", verr.Field)
	}
}

func TestCreateCorrectionRejectsZeroAmount(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.CreateCorrection(context.Background(), "client-1", "", "0.00", "noop", admin)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreateCorrectionRequiresAdmin(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.CreateCorrection(context.Background(), "client-1", "", "100", "fix",
		identity.Identity{Email: "c@credflow.in", Role: identity.RoleCreditTeam})
	require.ErrorIs(t, err, identity.ErrForbidden)
}

func TestCreateRatePolicyValidatesCondition(t *testing.T) {
	svc, _, rateRepo := newService(t)
	ctx := context.Background()

	rateRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, p *rate.Policy) error {
			assert.NotEqual(t, uuid.Nil, p.ID)
			assert.True(t, p.Active)
			assert.True(t, p.Rate.Equal(decimal.RequireFromString("2.0")))
			return nil
		})

	_, err := svc.CreateRatePolicy(ctx, PolicyInput{
		ClientID:  "client-1",
		Condition: "disbursed_amount >= 1000000",
		Rate:      "2.0",
		Priority:  10,
	}, admin)
	require.NoError(t, err)

	_, err = svc.CreateRatePolicy(ctx, PolicyInput{Rate: "2.0", Condition: "disbursed_amount >="}, admin)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "condition", verr.Field)

	_, err = svc.CreateRatePolicy(ctx, PolicyInput{Rate: "two"}, admin)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rate", verr.Field)
}

func TestGetPassesThrough(t *testing.T) {
	svc, ledgerRepo, _ := newService(t)
	ctx := context.Background()
	id := uuid.New()

	ledgerRepo.EXPECT().GetByID(ctx, id).Return(nil, ledger.ErrNotFound)

	_, err := svc.Get(ctx, id.String())
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

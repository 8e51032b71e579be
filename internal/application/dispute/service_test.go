package dispute

import (
	"context"
	"testing"
	"time"

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

func newService(t *testing.T) (*Service, *ledgermocks.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := ledgermocks.NewMockRepository(ctrl)
	svc := NewService(repo, appAudit.NewService(stubAuditRepo{}, zerolog.Nop(), nil), zerolog.Nop())
	return svc, repo
}

func confirmedEntry(status ledger.DisputeStatus) *ledger.Entry {
	e := &ledger.Entry{
		ID:            uuid.New(),
		ClientID:      "client-1",
		LoanFileID:    "LF-1",
		PayoutAmount:  decimal.NewFromInt(7500),
		EntryType:     ledger.EntryTypePayout,
		State:         ledger.EntryStateConfirmed,
		DisputeStatus: status,
		PayoutStatus:  ledger.PayoutNone,
	}
	if status != ledger.DisputeNone {
		e.Dispute = &ledger.Dispute{
			Reason:   "rate mismatch",
			RaisedBy: "client:a@acme.in",
			RaisedAt: time.Now().Add(-time.Hour),
		}
	}
	return e
}

func TestFlagOpensDispute(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	entry := confirmedEntry(ledger.DisputeNone)
	client := identity.Identity{Email: "a@acme.in", Role: identity.RoleClient}

	repo.EXPECT().GetByID(ctx, entry.ID).Return(entry, nil)
	repo.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	got, err := svc.Flag(ctx, entry.ID.String(), "  rate mismatch ", client)
	require.NoError(t, err)
	assert.Equal(t, ledger.DisputeFlagged, got.DisputeStatus)
	require.NotNil(t, got.Dispute)
	assert.Equal(t, "rate mismatch", got.Dispute.Reason)
	assert.Equal(t, "client:a@acme.in", got.Dispute.RaisedBy)
}

func TestFlagRequiresReason(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Flag(context.Background(), uuid.NewString(), "   ", identity.Identity{Role: identity.RoleClient})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reason", verr.Field)
}

func TestFlagOnFlaggedEntryIsStateError(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	entry := confirmedEntry(ledger.DisputeFlagged)

	repo.EXPECT().GetByID(ctx, entry.ID).Return(entry, nil)

	_, err := svc.Flag(ctx, entry.ID.String(), "again", identity.Identity{Role: identity.RoleClient})
	var serr *ledger.DisputeStateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "flag", serr.Op)
	assert.Equal(t, ledger.DisputeFlagged, serr.Current)
}

func TestReflagAfterResolutionIsAllowed(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	entry := confirmedEntry(ledger.DisputeRejected)

	repo.EXPECT().GetByID(ctx, entry.ID).Return(entry, nil)
	repo.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	got, err := svc.Flag(ctx, entry.ID.String(), "still wrong", identity.Identity{Email: "a@acme.in", Role: identity.RoleClient})
	require.NoError(t, err)
	assert.Equal(t, ledger.DisputeFlagged, got.DisputeStatus)
	assert.Equal(t, "still wrong", got.Dispute.Reason)
}

func TestResolveFlaggedEntryWithoutDisputePayload(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	entry := confirmedEntry(ledger.DisputeFlagged)
	entry.Dispute = nil

	repo.EXPECT().GetByID(ctx, entry.ID).Return(entry, nil)
	repo.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	got, err := svc.Resolve(ctx, entry.ID.String(), Resolution{Accepted: false, Notes: "no record of the raise"},
		identity.Identity{Email: "c@credflow.in", Role: identity.RoleCreditTeam})
	require.NoError(t, err)
	assert.Equal(t, ledger.DisputeRejected, got.DisputeStatus)
	require.NotNil(t, got.Dispute)
	require.NotNil(t, got.Dispute.ResolvedBy)
	assert.Equal(t, "credit_team:c@credflow.in", *got.Dispute.ResolvedBy)
}

func TestResolveAcceptedAdjustsPayout(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	entry := confirmedEntry(ledger.DisputeFlagged)
	credit := identity.Identity{Email: "c@credflow.in", Role: identity.RoleCreditTeam}
	adjusted := decimal.NewFromInt(6900)

	repo.EXPECT().GetByID(ctx, entry.ID).Return(entry, nil)
	repo.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	got, err := svc.Resolve(ctx, entry.ID.String(), Resolution{
		Accepted:       true,
		Notes:          "rate corrected to 1.38",
		AdjustedAmount: &adjusted,
	}, credit)
	require.NoError(t, err)
	assert.Equal(t, ledger.DisputeResolved, got.DisputeStatus)
	assert.True(t, got.PayoutAmount.Equal(adjusted))
	require.NotNil(t, got.Dispute.ResolvedBy)
	assert.Equal(t, "credit_team:c@credflow.in", *got.Dispute.ResolvedBy)
	require.NotNil(t, got.Dispute.AdjustedAmount)
}

func TestResolveRejectedKeepsPayout(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	entry := confirmedEntry(ledger.DisputeFlagged)
	original := entry.PayoutAmount

	repo.EXPECT().GetByID(ctx, entry.ID).Return(entry, nil)
	repo.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	got, err := svc.Resolve(ctx, entry.ID.String(), Resolution{Accepted: false, Notes: "rate per agreement"},
		identity.Identity{Email: "admin@credflow.in", Role: identity.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, ledger.DisputeRejected, got.DisputeStatus)
	assert.True(t, got.PayoutAmount.Equal(original))
}

func TestResolveRequiresCreditOrAdmin(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Resolve(context.Background(), uuid.NewString(), Resolution{Accepted: true},
		identity.Identity{Email: "k@credflow.in", Role: identity.RoleKAM})
	require.ErrorIs(t, err, identity.ErrForbidden)
}

func TestResolveUnflaggedEntryIsStateError(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	entry := confirmedEntry(ledger.DisputeNone)

	repo.EXPECT().GetByID(ctx, entry.ID).Return(entry, nil)

	_, err := svc.Resolve(ctx, entry.ID.String(), Resolution{Accepted: true},
		identity.Identity{Role: identity.RoleCreditTeam})
	var serr *ledger.DisputeStateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "resolve", serr.Op)
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appAudit "github.com/credflow/credflow/internal/application/audit"
	appCommission "github.com/credflow/credflow/internal/application/commission"
	appDispute "github.com/credflow/credflow/internal/application/dispute"
	appLifecycle "github.com/credflow/credflow/internal/application/lifecycle"
	appPayout "github.com/credflow/credflow/internal/application/payout"
	"github.com/credflow/credflow/internal/domain/audit"
	"github.com/credflow/credflow/internal/domain/identity"
	"github.com/credflow/credflow/internal/domain/ledger"
	ledgermocks "github.com/credflow/credflow/internal/domain/ledger/mocks"
	"github.com/credflow/credflow/internal/domain/loan"
	loanmocks "github.com/credflow/credflow/internal/domain/loan/mocks"
	"github.com/credflow/credflow/internal/domain/notification"
	ratemocks "github.com/credflow/credflow/internal/domain/rate/mocks"
	"github.com/credflow/credflow/internal/infrastructure/sse"
)

var testSecret = []byte("test-secret")

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

type fixture struct {
	loanRepo    *loanmocks.MockRepository
	historyRepo *loanmocks.MockHistoryRepository
	ledgerRepo  *ledgermocks.MockRepository
	rateRepo    *ratemocks.MockRepository
	router      http.Handler
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		loanRepo:    loanmocks.NewMockRepository(ctrl),
		historyRepo: loanmocks.NewMockHistoryRepository(ctrl),
		ledgerRepo:  ledgermocks.NewMockRepository(ctrl),
		rateRepo:    ratemocks.NewMockRepository(ctrl),
	}
	logger := zerolog.Nop()
	auditSvc := appAudit.NewService(stubAuditRepo{}, logger, nil)
	calc := ledger.NewCalculator(decimal.NewFromFloat(1.5))
	dispatcher := notification.NopDispatcher{}

	lifecycleSvc := appLifecycle.NewService(f.loanRepo, f.historyRepo, f.ledgerRepo, f.rateRepo, calc, auditSvc, dispatcher, logger)
	disputeSvc := appDispute.NewService(f.ledgerRepo, auditSvc, logger)
	payoutSvc := appPayout.NewService(f.ledgerRepo, auditSvc, dispatcher, logger)
	commissionSvc := appCommission.NewService(f.ledgerRepo, f.rateRepo, calc, auditSvc, logger)

	srv := NewServer(lifecycleSvc, disputeSvc, payoutSvc, commissionSvc, auditSvc, sse.NewHub(), testSecret, 30*time.Second)
	f.router = srv.Router()
	return f
}

func mintToken(t *testing.T, email string, role identity.Role, clientID string) string {
	t.Helper()
	claims := identity.Claims{
		Email:    email,
		Role:     string(role),
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func do(f *fixture, method, path, token, body string) *httptest.ResponseRecorder {
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestMissingTokenRejected(t *testing.T) {
	f := newFixture(t)
	rec := do(f, http.MethodGet, "/v1/applications", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec))
}

func TestGarbageTokenRejected(t *testing.T) {
	f := newFixture(t)
	rec := do(f, http.MethodGet, "/v1/applications", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransitionHappyPath(t *testing.T) {
	f := newFixture(t)
	stored := &loan.Application{
		FileID:          "LF-1",
		ClientID:        "client-1",
		Status:          loan.StatusUnderKAMReview,
		RequestedAmount: decimal.NewFromInt(500000),
		Version:         2,
	}
	f.loanRepo.EXPECT().GetByFileID(gomock.Any(), "LF-1").Return(stored, nil)
	f.loanRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Return(nil)
	f.historyRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	token := mintToken(t, "kam@credflow.in", identity.RoleKAM, "")
	rec := do(f, http.MethodPost, "/v1/applications/LF-1/transition", token,
		`{"target":"forwarded_to_credit"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got loan.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, loan.StatusPendingCreditReview, got.Status)
}

func TestTransitionRoleDenied(t *testing.T) {
	f := newFixture(t)
	stored := &loan.Application{FileID: "LF-1", ClientID: "client-1", Status: loan.StatusUnderKAMReview, Version: 1}
	f.loanRepo.EXPECT().GetByFileID(gomock.Any(), "LF-1").Return(stored, nil)

	token := mintToken(t, "c@credflow.in", identity.RoleClient, "client-1")
	rec := do(f, http.MethodPost, "/v1/applications/LF-1/transition", token,
		`{"target":"pending_credit_review"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "TRANSITION_DENIED", decodeError(t, rec))
}

func TestTransitionUnknownEdge(t *testing.T) {
	f := newFixture(t)
	stored := &loan.Application{FileID: "LF-1", ClientID: "client-1", Status: loan.StatusDraft, Version: 1}
	f.loanRepo.EXPECT().GetByFileID(gomock.Any(), "LF-1").Return(stored, nil)

	token := mintToken(t, "cr@credflow.in", identity.RoleCreditTeam, "")
	rec := do(f, http.MethodPost, "/v1/applications/LF-1/transition", token,
		`{"target":"approved"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "TRANSITION_DENIED", decodeError(t, rec))
}

func TestTransitionVersionConflict(t *testing.T) {
	f := newFixture(t)
	stored := &loan.Application{FileID: "LF-1", ClientID: "client-1", Status: loan.StatusUnderKAMReview, Version: 4}
	f.loanRepo.EXPECT().GetByFileID(gomock.Any(), "LF-1").Return(stored, nil)
	f.loanRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).
		Return(&loan.ConflictError{FileID: "LF-1", Version: 4})

	token := mintToken(t, "kam@credflow.in", identity.RoleKAM, "")
	rec := do(f, http.MethodPost, "/v1/applications/LF-1/transition", token,
		`{"target":"pending_credit_review"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, rec))
}

func TestGetApplicationNotFound(t *testing.T) {
	f := newFixture(t)
	f.loanRepo.EXPECT().GetByFileID(gomock.Any(), "LF-404").Return(nil, loan.ErrNotFound)

	token := mintToken(t, "kam@credflow.in", identity.RoleKAM, "")
	rec := do(f, http.MethodGet, "/v1/applications/LF-404", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec))
}

func TestListApplicationsScopedForClient(t *testing.T) {
	f := newFixture(t)
	f.loanRepo.EXPECT().List(gomock.Any(), gomock.Any(), 100, 0).
		DoAndReturn(func(_ context.Context, filter loan.Filter, _, _ int) ([]*loan.Application, error) {
			require.NotNil(t, filter.ClientID)
			assert.Equal(t, "client-1", *filter.ClientID)
			return []*loan.Application{}, nil
		})

	token := mintToken(t, "c@credflow.in", identity.RoleClient, "client-1")
	// The clientId filter of another client must be overridden.
	rec := do(f, http.MethodGet, "/v1/applications?clientId=client-2", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDisburseRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	token := mintToken(t, "cr@credflow.in", identity.RoleCreditTeam, "")
	rec := do(f, http.MethodPost, "/v1/applications/LF-1/disburse", token,
		`{"amount":"0","date":"2026-03-14"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAM", decodeError(t, rec))
}

func TestCorrectionRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	token := mintToken(t, "kam@credflow.in", identity.RoleKAM, "")
	rec := do(f, http.MethodPost, "/v1/ledger/corrections", token,
		`{"clientId":"client-1","amount":"100","description":"adjust"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec))
}

func TestAuditRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	token := mintToken(t, "c@credflow.in", identity.RoleClient, "client-1")
	rec := do(f, http.MethodGet, "/v1/admin/audit", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFlagDisputeStateMapped(t *testing.T) {
	f := newFixture(t)
	entryID := uuid.New()
	entry := &ledger.Entry{
		ID:            entryID,
		ClientID:      "client-1",
		State:         ledger.EntryStateConfirmed,
		DisputeStatus: ledger.DisputeFlagged,
	}
	f.ledgerRepo.EXPECT().GetByID(gomock.Any(), entryID).Return(entry, nil)

	token := mintToken(t, "c@credflow.in", identity.RoleClient, "client-1")
	rec := do(f, http.MethodPost, "/v1/ledger/"+entryID.String()+"/dispute", token,
		`{"reason":"wrong amount"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DISPUTE_STATE", decodeError(t, rec))
}

func TestGetLedgerEntryHiddenAcrossClients(t *testing.T) {
	f := newFixture(t)
	entryID := uuid.New()
	entry := &ledger.Entry{ID: entryID, ClientID: "client-2", State: ledger.EntryStateConfirmed}
	f.ledgerRepo.EXPECT().GetByID(gomock.Any(), entryID).Return(entry, nil)

	token := mintToken(t, "c@credflow.in", identity.RoleClient, "client-1")
	rec := do(f, http.MethodGet, "/v1/ledger/"+entryID.String(), token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownBodyFieldRejected(t *testing.T) {
	f := newFixture(t)
	token := mintToken(t, "kam@credflow.in", identity.RoleKAM, "")
	rec := do(f, http.MethodPost, "/v1/applications/LF-1/transition", token,
		`{"target":"pending_credit_review","bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApprovePayoutSettlesApprovedAmount(t *testing.T) {
	f := newFixture(t)
	entryID := uuid.New()
	entry := &ledger.Entry{
		ID:           entryID,
		ClientID:     "client-1",
		LoanFileID:   "LF-1",
		PayoutAmount: decimal.NewFromInt(7500),
		EntryType:    ledger.EntryTypePayout,
		State:        ledger.EntryStateConfirmed,
		PayoutStatus: ledger.PayoutRequested,
	}
	f.ledgerRepo.EXPECT().GetByID(gomock.Any(), entryID).Return(entry, nil)
	var created *ledger.Entry
	f.ledgerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e *ledger.Entry) error {
			created = e
			return nil
		})
	f.ledgerRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	token := mintToken(t, "cr@credflow.in", identity.RoleCreditTeam, "")
	rec := do(f, http.MethodPost, "/v1/ledger/"+entryID.String()+"/payout/approve", token,
		`{"approvedAmount":"5000","note":"partial settlement"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, created)
	assert.True(t, created.PayoutAmount.Equal(decimal.NewFromInt(-5000)))
	assert.Contains(t, created.Description, "partial settlement")
}

func TestApprovePayoutWithoutAmountRejected(t *testing.T) {
	f := newFixture(t)
	token := mintToken(t, "cr@credflow.in", identity.RoleCreditTeam, "")
	rec := do(f, http.MethodPost, "/v1/ledger/"+uuid.NewString()+"/payout/approve", token, `{"note":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAM", decodeError(t, rec))
}

package httpapi

import (
	"errors"
	"net/http"

	appCommission "github.com/credflow/credflow/internal/application/commission"
	appDispute "github.com/credflow/credflow/internal/application/dispute"
	appLifecycle "github.com/credflow/credflow/internal/application/lifecycle"
	appPayout "github.com/credflow/credflow/internal/application/payout"
	"github.com/credflow/credflow/internal/domain/audit"
	"github.com/credflow/credflow/internal/domain/identity"
	"github.com/credflow/credflow/internal/domain/ledger"
	"github.com/credflow/credflow/internal/domain/loan"
)

// respondServiceError maps application and domain errors onto the wire
// codes. Anything unrecognized is a 500; callers never see internals
// beyond the error message.
func respondServiceError(w http.ResponseWriter, err error) {
	var (
		transitionErr *loan.TransitionError
		conflictErr   *loan.ConflictError
		disputeState  *ledger.DisputeStateError
		payoutState   *appPayout.StateError
		lifecycleVal  *appLifecycle.ValidationError
		disputeVal    *appDispute.ValidationError
		payoutVal     *appPayout.ValidationError
		commissionVal *appCommission.ValidationError
	)

	switch {
	case errors.As(err, &transitionErr):
		respondError(w, http.StatusConflict, "TRANSITION_DENIED", transitionErr.Error())
	case errors.As(err, &conflictErr):
		respondError(w, http.StatusConflict, "CONFLICT", conflictErr.Error())
	case errors.As(err, &disputeState):
		respondError(w, http.StatusConflict, "DISPUTE_STATE", disputeState.Error())
	case errors.As(err, &payoutState):
		respondError(w, http.StatusConflict, "PAYOUT_STATE", payoutState.Error())
	case errors.As(err, &lifecycleVal), errors.As(err, &disputeVal), errors.As(err, &payoutVal), errors.As(err, &commissionVal):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case errors.Is(err, ledger.ErrDuplicateEntry):
		respondError(w, http.StatusConflict, "DUPLICATE_ENTRY", err.Error())
	case errors.Is(err, loan.ErrNotFound), errors.Is(err, ledger.ErrNotFound), errors.Is(err, audit.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, identity.ErrForbidden):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

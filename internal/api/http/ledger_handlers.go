package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	appCommission "github.com/credflow/credflow/internal/application/commission"
	appDispute "github.com/credflow/credflow/internal/application/dispute"
	"github.com/credflow/credflow/internal/domain/identity"
	"github.com/credflow/credflow/internal/domain/ledger"
)

type flagDisputeRequest struct {
	Reason string `json:"reason"`
}

type resolveDisputeRequest struct {
	Accepted       bool             `json:"accepted"`
	Notes          string           `json:"notes,omitempty"`
	AdjustedAmount *decimal.Decimal `json:"adjustedAmount,omitempty"`
}

type approvePayoutRequest struct {
	ApprovedAmount decimal.Decimal `json:"approvedAmount"`
	Note           string          `json:"note,omitempty"`
}

type rejectPayoutRequest struct {
	Reason string `json:"reason,omitempty"`
}

type correctionRequest struct {
	ClientID    string `json:"clientId"`
	LoanFileID  string `json:"loanFileId,omitempty"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type ratePolicyRequest struct {
	ClientID  string `json:"clientId,omitempty"`
	Condition string `json:"condition,omitempty"`
	Rate      string `json:"rate"`
	Priority  int    `json:"priority,omitempty"`
}

func (s *Server) listLedgerEntries(w http.ResponseWriter, r *http.Request) {
	var filter ledger.Filter
	if v := r.URL.Query().Get("clientId"); v != "" {
		filter.ClientID = &v
	}
	if v := r.URL.Query().Get("loanFileId"); v != "" {
		filter.LoanFileID = &v
	}
	if v := r.URL.Query().Get("disputeStatus"); v != "" {
		ds := ledger.DisputeStatus(v)
		filter.DisputeStatus = &ds
	}
	if v := r.URL.Query().Get("payoutStatus"); v != "" {
		ps := ledger.PayoutRequestStatus(v)
		filter.PayoutStatus = &ps
	}
	if r.URL.Query().Get("confirmedOnly") == "true" {
		filter.ConfirmedOnly = true
	}

	actor := s.identityFromRequest(r)
	limit, offset := parseLimitOffset(r, 100, 200)
	entries, err := s.commissionSvc.List(r.Context(), filter, actor, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) getLedgerEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.commissionSvc.Get(r.Context(), chi.URLParam(r, "entryId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	// Clients cannot read entries from another client's ledger.
	if id := s.identityFromRequest(r); id.Role == identity.RoleClient && entry.ClientID != id.ClientID {
		respondError(w, http.StatusNotFound, "NOT_FOUND", ledger.ErrNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	id := s.identityFromRequest(r)
	clientID := r.URL.Query().Get("clientId")
	if id.Role == identity.RoleClient {
		clientID = id.ClientID
	}
	if clientID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "clientId required")
		return
	}
	balance, err := s.commissionSvc.Balance(r.Context(), clientID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"clientId": clientID,
		"balance":  balance,
	})
}

func (s *Server) flagDispute(w http.ResponseWriter, r *http.Request) {
	var req flagDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := s.identityFromRequest(r)
	entry, err := s.disputeSvc.Flag(r.Context(), chi.URLParam(r, "entryId"), req.Reason, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (s *Server) resolveDispute(w http.ResponseWriter, r *http.Request) {
	var req resolveDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := s.identityFromRequest(r)
	entry, err := s.disputeSvc.Resolve(r.Context(), chi.URLParam(r, "entryId"), appDispute.Resolution{
		Accepted:       req.Accepted,
		Notes:          req.Notes,
		AdjustedAmount: req.AdjustedAmount,
	}, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (s *Server) requestPayout(w http.ResponseWriter, r *http.Request) {
	actor := s.identityFromRequest(r)
	entry, err := s.payoutSvc.Request(r.Context(), chi.URLParam(r, "entryId"), actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (s *Server) approvePayout(w http.ResponseWriter, r *http.Request) {
	var req approvePayoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := s.identityFromRequest(r)
	entry, settlement, err := s.payoutSvc.Approve(r.Context(), chi.URLParam(r, "entryId"), req.ApprovedAmount, req.Note, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entry":      entry,
		"settlement": settlement,
	})
}

func (s *Server) rejectPayout(w http.ResponseWriter, r *http.Request) {
	var req rejectPayoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := s.identityFromRequest(r)
	entry, err := s.payoutSvc.Reject(r.Context(), chi.URLParam(r, "entryId"), req.Reason, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (s *Server) createCorrection(w http.ResponseWriter, r *http.Request) {
	var req correctionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := s.identityFromRequest(r)
	entry, err := s.commissionSvc.CreateCorrection(r.Context(), req.ClientID, req.LoanFileID, req.Amount, req.Description, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) createRatePolicy(w http.ResponseWriter, r *http.Request) {
	var req ratePolicyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor := s.identityFromRequest(r)
	policy, err := s.commissionSvc.CreateRatePolicy(r.Context(), appCommission.PolicyInput{
		ClientID:  req.ClientID,
		Condition: req.Condition,
		Rate:      req.Rate,
		Priority:  req.Priority,
	}, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, policy)
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	appLifecycle "github.com/credflow/credflow/internal/application/lifecycle"
	"github.com/credflow/credflow/internal/domain/identity"
	"github.com/credflow/credflow/internal/domain/loan"
)

type transitionRequest struct {
	Target         string           `json:"target"`
	Reason         *string          `json:"reason,omitempty"`
	ApprovedAmount *decimal.Decimal `json:"approvedAmount,omitempty"`
}

type disburseRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date,omitempty"`
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	id := s.identityFromRequest(r)

	var filter loan.Filter
	if v := r.URL.Query().Get("status"); v != "" {
		st := loan.NormalizeStatus(v)
		filter.Status = &st
	}
	if v := r.URL.Query().Get("clientId"); v != "" {
		filter.ClientID = &v
	}
	if v := r.URL.Query().Get("kamId"); v != "" {
		filter.KamID = &v
	}
	// Clients and KAMs only see their own book regardless of filters.
	switch id.Role {
	case identity.RoleClient:
		cid := id.ClientID
		filter.ClientID = &cid
	case identity.RoleKAM:
		kid := id.KamID
		filter.KamID = &kid
	}

	limit, offset := parseLimitOffset(r, 100, 200)
	apps, err := s.lifecycleSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

func (s *Server) getApplication(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")
	app, err := s.lifecycleSvc.Get(r.Context(), fileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, app)
}

func (s *Server) transitionApplication(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")
	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.Target == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "target required")
		return
	}

	actor := s.identityFromRequest(r)
	app, err := s.lifecycleSvc.Transition(r.Context(), fileID, loan.Status(req.Target), actor, appLifecycle.TransitionParams{
		Reason:         req.Reason,
		ApprovedAmount: req.ApprovedAmount,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, app)
}

func (s *Server) disburseApplication(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")
	var req disburseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid date")
			return
		}
		date = parsed
	}

	actor := s.identityFromRequest(r)
	app, entry, err := s.lifecycleSvc.MarkDisbursed(r.Context(), fileID, req.Amount, date, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"application": app,
		"ledgerEntry": entry,
	})
}

func (s *Server) getApplicationHistory(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")
	entries, err := s.lifecycleSvc.History(r.Context(), fileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

func (s *Server) getAllowedTargets(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")
	actor := s.identityFromRequest(r)
	targets, err := s.lifecycleSvc.AllowedTargets(r.Context(), fileID, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"targets": targets})
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

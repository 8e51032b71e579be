package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appAudit "github.com/credflow/credflow/internal/application/audit"
)

func (s *Server) queryAuditLogs(w http.ResponseWriter, r *http.Request) {
	params := appAudit.QueryParams{}
	q := r.URL.Query()
	if v := q.Get("entityType"); v != "" {
		params.EntityType = &v
	}
	if v := q.Get("entityId"); v != "" {
		params.EntityID = &v
	}
	if v := q.Get("action"); v != "" {
		params.Action = &v
	}
	if v := q.Get("actor"); v != "" {
		params.Actor = &v
	}
	if v := q.Get("cursor"); v != "" {
		params.Cursor = &v
	}
	limit, _ := parseLimitOffset(r, 50, 200)
	params.Limit = limit

	result, err := s.auditSvc.Query(r.Context(), params)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) getAuditLog(w http.ResponseWriter, r *http.Request) {
	auditID, err := uuid.Parse(chi.URLParam(r, "auditId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid auditId")
		return
	}
	log, err := s.auditSvc.GetByID(r.Context(), auditID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, log)
}

func (s *Server) getEntityAuditHistory(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID := chi.URLParam(r, "entityId")
	logs, err := s.auditSvc.GetEntityHistory(r.Context(), entityType, entityID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

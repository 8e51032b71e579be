package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appAudit "github.com/credflow/credflow/internal/application/audit"
	appCommission "github.com/credflow/credflow/internal/application/commission"
	appDispute "github.com/credflow/credflow/internal/application/dispute"
	appLifecycle "github.com/credflow/credflow/internal/application/lifecycle"
	appPayout "github.com/credflow/credflow/internal/application/payout"
	"github.com/credflow/credflow/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	lifecycleSvc  *appLifecycle.Service
	disputeSvc    *appDispute.Service
	payoutSvc     *appPayout.Service
	commissionSvc *appCommission.Service
	auditSvc      *appAudit.Service
	sseHub        *sse.Hub
	tokenSecret   []byte
	timeout       time.Duration
}

func NewServer(
	lifecycleSvc *appLifecycle.Service,
	disputeSvc *appDispute.Service,
	payoutSvc *appPayout.Service,
	commissionSvc *appCommission.Service,
	auditSvc *appAudit.Service,
	sseHub *sse.Hub,
	tokenSecret []byte,
	timeout time.Duration,
) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		lifecycleSvc:  lifecycleSvc,
		disputeSvc:    disputeSvc,
		payoutSvc:     payoutSvc,
		commissionSvc: commissionSvc,
		auditSvc:      auditSvc,
		sseHub:        sseHub,
		tokenSecret:   tokenSecret,
		timeout:       timeout,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/applications", func(r chi.Router) {
				r.Get("/", s.listApplications)
				r.Get("/{fileId}", s.getApplication)
				r.Post("/{fileId}/transition", s.transitionApplication)
				r.Post("/{fileId}/disburse", s.disburseApplication)
				r.Get("/{fileId}/history", s.getApplicationHistory)
				r.Get("/{fileId}/allowed-targets", s.getAllowedTargets)
			})

			r.Route("/ledger", func(r chi.Router) {
				r.Get("/", s.listLedgerEntries)
				r.Get("/balance", s.getBalance)
				r.With(s.requireRole("admin")).Post("/corrections", s.createCorrection)
				r.Get("/{entryId}", s.getLedgerEntry)
				r.Post("/{entryId}/dispute", s.flagDispute)
				r.Post("/{entryId}/dispute/resolve", s.resolveDispute)
				r.Post("/{entryId}/payout/request", s.requestPayout)
				r.Post("/{entryId}/payout/approve", s.approvePayout)
				r.Post("/{entryId}/payout/reject", s.rejectPayout)
			})

			r.With(s.requireRole("admin")).Post("/rates", s.createRatePolicy)

			r.Route("/admin/audit", func(r chi.Router) {
				r.Use(s.requireRole("admin"))
				r.Get("/", s.queryAuditLogs)
				r.Get("/{auditId}", s.getAuditLog)
				r.Get("/entity/{entityType}/{entityId}", s.getEntityAuditHistory)
			})

			r.Get("/events/sse", s.sseEndpoint)
		})
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

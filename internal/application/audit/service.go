package audit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/credflow/credflow/internal/domain/audit"
)

// Service handles audit log operations.
type Service struct {
	repo    audit.Repository
	logger  zerolog.Logger
	signKey []byte
}

// NewService creates a new audit service. With an empty signKey entries are
// stored unsigned.
func NewService(repo audit.Repository, logger zerolog.Logger, signKey []byte) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Log creates a new audit log entry asynchronously. Failures are logged and
// never reach the caller; the audit trail must not block mutations.
func (s *Service) Log(ctx context.Context, entry *audit.Entry) {
	go func() {
		if err := s.LogSync(context.Background(), entry); err != nil {
			s.logger.Error().Err(err).
				Str("entityType", string(entry.EntityType)).
				Str("entityId", entry.EntityID).
				Str("action", string(entry.Action)).
				Msg("failed to create audit log")
		}
	}()
}

// LogSync creates a new audit log entry synchronously.
func (s *Service) LogSync(ctx context.Context, entry *audit.Entry) error {
	log := audit.NewLog(entry)

	if len(s.signKey) > 0 {
		sig, err := audit.Sign(log, s.signKey)
		if err != nil {
			return fmt.Errorf("failed to sign audit log: %w", err)
		}
		log.Signature = sig
	}

	if err := s.repo.Create(ctx, log); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}

	s.logger.Debug().
		Str("auditId", log.AuditID.String()).
		Str("entityType", string(log.EntityType)).
		Str("entityId", log.EntityID).
		Str("action", string(log.Action)).
		Str("actor", log.Actor).
		Msg("audit log created")

	return nil
}

// QueryParams represents query parameters for audit logs.
type QueryParams struct {
	EntityType *string
	EntityID   *string
	Action     *string
	Actor      *string
	Cursor     *string
	Limit      int
}

// Pagination holds pagination information.
type Pagination struct {
	Cursor  *string `json:"cursor,omitempty"`
	HasMore bool    `json:"hasMore"`
	Count   int     `json:"count"`
}

// QueryResult represents the result of an audit log query.
type QueryResult struct {
	Logs       []*audit.Log `json:"logs"`
	Pagination Pagination   `json:"pagination"`
}

// Query retrieves audit logs based on parameters.
func (s *Service) Query(ctx context.Context, params QueryParams) (*QueryResult, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Limit > 200 {
		params.Limit = 200
	}

	var cursor *audit.Cursor
	if params.Cursor != nil && *params.Cursor != "" {
		c, err := decodeCursor(*params.Cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		cursor = c
	}

	filter := audit.QueryFilter{}
	if params.EntityType != nil {
		et := audit.EntityType(*params.EntityType)
		filter.EntityType = &et
	}
	if params.EntityID != nil {
		filter.EntityID = params.EntityID
	}
	if params.Action != nil {
		a := audit.Action(*params.Action)
		filter.Action = &a
	}
	if params.Actor != nil {
		filter.Actor = params.Actor
	}

	logs, nextCursor, err := s.repo.Query(ctx, filter, cursor, params.Limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query audit logs")
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	result := &QueryResult{
		Logs: logs,
		Pagination: Pagination{
			Count:   len(logs),
			HasMore: nextCursor != nil,
		},
	}
	if nextCursor != nil {
		encoded, err := encodeCursor(nextCursor)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to encode cursor")
		} else {
			result.Pagination.Cursor = &encoded
		}
	}

	return result, nil
}

// GetByID retrieves an audit log by its ID.
func (s *Service) GetByID(ctx context.Context, auditID uuid.UUID) (*audit.Log, error) {
	log, err := s.repo.GetByID(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}
	return log, nil
}

// GetEntityHistory retrieves the complete audit history for an entity.
func (s *Service) GetEntityHistory(ctx context.Context, entityType, entityID string) ([]*audit.Log, error) {
	logs, err := s.repo.GetByEntityID(ctx, audit.EntityType(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entity history: %w", err)
	}
	return logs, nil
}

func encodeCursor(c *audit.Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

func decodeCursor(s string) (*audit.Cursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var c audit.Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

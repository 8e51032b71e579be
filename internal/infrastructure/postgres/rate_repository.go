package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credflow/credflow/internal/domain/rate"
)

// RateRepository implements rate.Repository.
type RateRepository struct {
	pool *pgxpool.Pool
}

func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

func (r *RateRepository) Create(ctx context.Context, p *rate.Policy) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO rate_policies
		(id, client_id, condition, rate, priority, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, p.ID, p.ClientID, p.Condition, p.Rate, p.Priority, p.Active, p.CreatedAt)
	return err
}

func (r *RateRepository) ListForClient(ctx context.Context, clientID string) ([]*rate.Policy, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, condition, rate, priority, active, created_at
		FROM rate_policies
		WHERE active AND (client_id=$1 OR client_id='')
		ORDER BY priority DESC, created_at ASC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var policies []*rate.Policy
	for rows.Next() {
		var p rate.Policy
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Condition, &p.Rate, &p.Priority, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		policies = append(policies, &p)
	}
	return policies, rows.Err()
}

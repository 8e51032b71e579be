package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credflow/credflow/internal/domain/loan"
)

// HistoryRepository implements loan.HistoryRepository. Rows are append-only;
// there is no update or delete path.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) Append(ctx context.Context, entry *loan.HistoryEntry) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO loan_status_history
		(file_id, from_status, to_status, changed_by, changed_at, reason)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, entry.FileID, entry.FromStatus, entry.ToStatus, entry.ChangedBy, entry.ChangedAt, entry.Reason)
	return row.Scan(&entry.ID)
}

func (r *HistoryRepository) ListByFileID(ctx context.Context, fileID string) ([]*loan.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, file_id, from_status, to_status, changed_by, changed_at, reason
		FROM loan_status_history WHERE file_id=$1 ORDER BY changed_at ASC, id ASC
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*loan.HistoryEntry
	for rows.Next() {
		var e loan.HistoryEntry
		if err := rows.Scan(&e.ID, &e.FileID, &e.FromStatus, &e.ToStatus, &e.ChangedBy, &e.ChangedAt, &e.Reason); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

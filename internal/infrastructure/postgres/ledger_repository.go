package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credflow/credflow/internal/domain/ledger"
)

// LedgerRepository implements ledger.Repository. The dispute sub-record is
// stored as jsonb next to the money columns.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const ledgerColumns = `id, client_id, loan_file_id, entry_date, disbursed_amount, commission_rate, payout_amount, entry_type, description, state, dispute_status, payout_status, dispute, idempotency_key, created_by, created_at, updated_at`

func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	dispute, err := marshalDispute(entry.Dispute)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO ledger_entries
		(`+ledgerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, entry.ID, entry.ClientID, entry.LoanFileID, entry.Date, entry.DisbursedAmount, entry.CommissionRate, entry.PayoutAmount, entry.EntryType, entry.Description, entry.State, entry.DisputeStatus, entry.PayoutStatus, dispute, nullIfEmpty(entry.IdempotencyKey), entry.CreatedBy, entry.CreatedAt, entry.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ledger.ErrDuplicateEntry
	}
	return err
}

func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries WHERE id=$1
	`, id)
	return scanLedgerEntry(row)
}

func (r *LedgerRepository) List(ctx context.Context, filter ledger.Filter, limit, offset int) ([]*ledger.Entry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries`
	args := []interface{}{}
	idx := 1
	if filter.ClientID != nil {
		query += " WHERE client_id=$" + itoa(idx)
		args = append(args, *filter.ClientID)
		idx++
	}
	if filter.LoanFileID != nil {
		query += addWhere(query) + " loan_file_id=$" + itoa(idx)
		args = append(args, *filter.LoanFileID)
		idx++
	}
	if filter.DisputeStatus != nil {
		query += addWhere(query) + " dispute_status=$" + itoa(idx)
		args = append(args, *filter.DisputeStatus)
		idx++
	}
	if filter.PayoutStatus != nil {
		query += addWhere(query) + " payout_status=$" + itoa(idx)
		args = append(args, *filter.PayoutStatus)
		idx++
	}
	if filter.ConfirmedOnly {
		query += addWhere(query) + " state='confirmed'"
	}
	query += " ORDER BY entry_date DESC, created_at DESC"
	if limit > 0 {
		query += " LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*ledger.Entry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *LedgerRepository) Update(ctx context.Context, entry *ledger.Entry) error {
	dispute, err := marshalDispute(entry.Dispute)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE ledger_entries
		SET payout_amount=$1, state=$2, dispute_status=$3, payout_status=$4, dispute=$5, updated_at=$6
		WHERE id=$7
	`, entry.PayoutAmount, entry.State, entry.DisputeStatus, entry.PayoutStatus, dispute, entry.UpdatedAt, entry.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func scanLedgerEntry(row pgx.Row) (*ledger.Entry, error) {
	var e ledger.Entry
	var dispute []byte
	var idemKey *string
	if err := row.Scan(&e.ID, &e.ClientID, &e.LoanFileID, &e.Date, &e.DisbursedAmount, &e.CommissionRate, &e.PayoutAmount, &e.EntryType, &e.Description, &e.State, &e.DisputeStatus, &e.PayoutStatus, &dispute, &idemKey, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	if len(dispute) > 0 {
		var d ledger.Dispute
		if err := json.Unmarshal(dispute, &d); err != nil {
			return nil, err
		}
		e.Dispute = &d
	}
	if idemKey != nil {
		e.IdempotencyKey = *idemKey
	}
	return &e, nil
}

func marshalDispute(d *ledger.Dispute) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credflow/credflow/internal/domain/loan"
)

// LoanRepository implements loan.Repository.
type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, file_id, client_id, kam_id, product_id, status, requested_amount, approved_amount, disbursed_amount, decision_reason, version, created_at, updated_at`

func (r *LoanRepository) GetByFileID(ctx context.Context, fileID string) (*loan.Application, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+loanColumns+`
		FROM loan_applications WHERE file_id=$1
	`, fileID)
	return scanLoan(row)
}

func (r *LoanRepository) List(ctx context.Context, filter loan.Filter, limit, offset int) ([]*loan.Application, error) {
	query := `SELECT ` + loanColumns + ` FROM loan_applications`
	args := []interface{}{}
	idx := 1
	if filter.Status != nil {
		query += " WHERE status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.ClientID != nil {
		query += addWhere(query) + " client_id=$" + itoa(idx)
		args = append(args, *filter.ClientID)
		idx++
	}
	if filter.KamID != nil {
		query += addWhere(query) + " kam_id=$" + itoa(idx)
		args = append(args, *filter.KamID)
		idx++
	}
	query += " ORDER BY updated_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var apps []*loan.Application
	for rows.Next() {
		a, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (r *LoanRepository) UpdateStatus(ctx context.Context, app *loan.Application) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE loan_applications
		SET status=$1, approved_amount=$2, disbursed_amount=$3, decision_reason=$4, version=version+1, updated_at=$5
		WHERE file_id=$6 AND version=$7
	`, app.Status, app.ApprovedAmount, app.DisbursedAmount, app.DecisionReason, app.UpdatedAt, app.FileID, app.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		row := r.pool.QueryRow(ctx, `SELECT version FROM loan_applications WHERE file_id=$1`, app.FileID)
		var current int64
		if err := row.Scan(&current); err != nil {
			if err == pgx.ErrNoRows {
				return loan.ErrNotFound
			}
			return err
		}
		return &loan.ConflictError{FileID: app.FileID, Version: current}
	}
	app.Version++
	return nil
}

func scanLoan(row pgx.Row) (*loan.Application, error) {
	var a loan.Application
	if err := row.Scan(&a.ID, &a.FileID, &a.ClientID, &a.KamID, &a.ProductID, &a.Status, &a.RequestedAmount, &a.ApprovedAmount, &a.DisbursedAmount, &a.DecisionReason, &a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

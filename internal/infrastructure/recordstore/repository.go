package recordstore

import (
	"context"
	"sort"

	"github.com/credflow/credflow/internal/domain/loan"
)

const (
	tableLoans   = "loans"
	tableHistory = "loan_status_history"
)

// LoanRepository implements loan.Repository over the legacy record store.
// The store has no compare-and-swap, so the version check reads back the
// stored record first; the window between read and write is accepted for
// this backend.
type LoanRepository struct {
	client *Client
}

func NewLoanRepository(client *Client) *LoanRepository {
	return &LoanRepository{client: client}
}

func (r *LoanRepository) GetByFileID(ctx context.Context, fileID string) (*loan.Application, error) {
	recs, err := r.client.List(ctx, tableLoans, map[string]string{"loanFileId": fileID})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		// Older records may be keyed by the snake_case spelling.
		recs, err = r.client.List(ctx, tableLoans, map[string]string{"loan_file_id": fileID})
		if err != nil {
			return nil, err
		}
	}
	if len(recs) == 0 {
		return nil, loan.ErrNotFound
	}
	return ApplicationFromRecord(recs[0])
}

func (r *LoanRepository) List(ctx context.Context, filter loan.Filter, limit, offset int) ([]*loan.Application, error) {
	filters := map[string]string{}
	if filter.ClientID != nil {
		filters["clientId"] = *filter.ClientID
	}
	if filter.KamID != nil {
		filters["kamId"] = *filter.KamID
	}
	recs, err := r.client.List(ctx, tableLoans, filters)
	if err != nil {
		return nil, err
	}
	var apps []*loan.Application
	for _, rec := range recs {
		app, err := ApplicationFromRecord(rec)
		if err != nil {
			continue
		}
		if filter.Status != nil && app.Status != *filter.Status {
			continue
		}
		apps = append(apps, app)
	}
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].UpdatedAt.After(apps[j].UpdatedAt)
	})
	if offset >= len(apps) {
		return nil, nil
	}
	apps = apps[offset:]
	if limit > 0 && limit < len(apps) {
		apps = apps[:limit]
	}
	return apps, nil
}

func (r *LoanRepository) UpdateStatus(ctx context.Context, app *loan.Application) error {
	stored, err := r.GetByFileID(ctx, app.FileID)
	if err != nil {
		return err
	}
	if stored.Version != app.Version {
		return &loan.ConflictError{FileID: app.FileID, Version: stored.Version}
	}
	app.Version++
	if err := r.client.Upsert(ctx, tableLoans, ApplicationToRecord(app)); err != nil {
		app.Version--
		return err
	}
	return nil
}

// HistoryRepository implements loan.HistoryRepository over the record store.
type HistoryRepository struct {
	client *Client
}

func NewHistoryRepository(client *Client) *HistoryRepository {
	return &HistoryRepository{client: client}
}

func (r *HistoryRepository) Append(ctx context.Context, entry *loan.HistoryEntry) error {
	return r.client.Append(ctx, tableHistory, HistoryToRecord(entry))
}

func (r *HistoryRepository) ListByFileID(ctx context.Context, fileID string) ([]*loan.HistoryEntry, error) {
	recs, err := r.client.List(ctx, tableHistory, map[string]string{"loanFileId": fileID})
	if err != nil {
		return nil, err
	}
	var entries []*loan.HistoryEntry
	for _, rec := range recs {
		entry, err := HistoryFromRecord(rec)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ChangedAt.Before(entries[j].ChangedAt)
	})
	return entries, nil
}

package loan

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,HistoryRepository

import "context"

// Filter controls application listing.
type Filter struct {
	Status   *Status
	ClientID *string
	KamID    *string
}

// Repository defines persistence for loan applications. The core only
// mutates status and decision fields; everything else is owned by the
// record store.
type Repository interface {
	GetByFileID(ctx context.Context, fileID string) (*Application, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Application, error)
	// UpdateStatus writes the new status and decision fields if and only if
	// the stored version still equals app.Version, then bumps the version.
	// A stale version returns *ConflictError.
	UpdateStatus(ctx context.Context, app *Application) error
}

// HistoryRepository appends and reads the immutable transition trail.
type HistoryRepository interface {
	Append(ctx context.Context, entry *HistoryEntry) error
	// ListByFileID returns entries ordered by ChangedAt ascending.
	ListByFileID(ctx context.Context, fileID string) ([]*HistoryEntry, error)
}

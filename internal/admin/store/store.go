package store

import (
	"context"
	"errors"

	"github.com/tksolution/admin/internal/admin/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface for locally persisted data.
// Concrete drivers (sqlite, postgres) implement this. The only table this
// service owns is the activity log; everything else lives in the hosted
// backend.
type Store interface {
	ActivityLogs() ActivityLogs

	// ApplyMigrations brings the schema up to date.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type ActivityLogs interface {
	// Append writes one audit entry. The entry's CreatedAt is assigned here
	// if the caller left it zero.
	Append(ctx context.Context, entry domain.AuditEntry) error

	// ListRecent returns up to limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

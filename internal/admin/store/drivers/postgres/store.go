// Package postgres is the activity log driver for deployments pointed
// straight at the product database instead of the backend's table API.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/tksolution/admin/internal/admin/store"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// Pool defaults sized for a small admin service; revisit under load
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ActivityLogs() store.ActivityLogs { return &activityLogsRepo{db: s.db} }

// ApplyMigrations ensures the activity log table exists. The product database
// already carries this table in hosted deployments, so the DDL is idempotent.
func (s *Store) ApplyMigrations() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS activity_logs (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			action     TEXT NOT NULL,
			details    JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at
			ON activity_logs (created_at DESC);
	`)
	return err
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tksolution/admin/internal/admin/domain"
)

type activityLogsRepo struct {
	db *sql.DB
}

func (r *activityLogsRepo) Append(ctx context.Context, entry domain.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, user_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.ActorID, entry.Action, details, createdAt,
	)
	return err
}

func (r *activityLogsRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, details, created_at
		FROM activity_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			entry   domain.AuditEntry
			details []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(details, &entry.Details); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

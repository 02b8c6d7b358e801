package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tksolution/admin/internal/admin/domain"
	"github.com/tksolution/admin/internal/admin/store/drivers/sqlite"
	"github.com/tksolution/admin/pkg/idx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestActivityLogsAppendAndList(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{"user_invited", "user_invited", "settings_changed"} {
		err := st.ActivityLogs().Append(ctx, domain.AuditEntry{
			ID:        idx.New().String(),
			ActorID:   "actor-1",
			Action:    action,
			Details:   map[string]any{"seq": float64(i)},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	entries, err := st.ActivityLogs().ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	require.Equal(t, "settings_changed", entries[0].Action)
	require.Equal(t, map[string]any{"seq": float64(2)}, entries[0].Details)
	require.Equal(t, "user_invited", entries[1].Action)
}

func TestActivityLogsAssignsCreatedAt(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	err := st.ActivityLogs().Append(ctx, domain.AuditEntry{
		ID:      idx.New().String(),
		ActorID: "actor-1",
		Action:  domain.ActionUserInvited,
		Details: map[string]any{"invited_email": "new@co.com"},
	})
	require.NoError(t, err)

	entries, err := st.ActivityLogs().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.False(t, entries[0].CreatedAt.IsZero())
}

func TestPing(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Ping(context.Background()))
}

// Package audit records privileged actions. Writes on the request path are
// best-effort: a failed append is logged by the caller and never turns a
// successful operation into an error response.
package audit

import (
	"context"
	"sync"

	"github.com/tksolution/admin/internal/admin/domain"
	"github.com/tksolution/admin/internal/admin/store"
	"github.com/tksolution/admin/pkg/idx"
)

// Sink is an append-only activity record with a bounded read path for the
// admin activity page.
type Sink interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// StoreSink persists entries in a local store driver (sqlite or postgres).
type StoreSink struct {
	Store store.Store
}

var _ Sink = (*StoreSink)(nil)

func (s *StoreSink) Append(ctx context.Context, entry domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = idx.New().String()
	}
	return s.Store.ActivityLogs().Append(ctx, entry)
}

func (s *StoreSink) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	return s.Store.ActivityLogs().ListRecent(ctx, limit)
}

// Memory is an in-process sink for tests.
type Memory struct {
	mu      sync.Mutex
	entries []domain.AuditEntry

	// AppendErr, when set, is returned by Append.
	AppendErr error
}

var _ Sink = (*Memory)(nil)

func (m *Memory) Append(_ context.Context, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendErr != nil {
		return m.AppendErr
	}
	if entry.ID == "" {
		entry.ID = idx.New().String()
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *Memory) ListRecent(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.AuditEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Entries returns everything appended so far, oldest first.
func (m *Memory) Entries() []domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEntry(nil), m.entries...)
}

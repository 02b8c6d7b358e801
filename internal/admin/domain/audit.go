package domain

import "time"

// Audit actions recorded by this service.
const (
	ActionUserInvited = "user_invited"
)

// AuditEntry is an append-only record of a privileged action. The sink assigns
// CreatedAt; ID is a ULID assigned by whoever writes the entry.
type AuditEntry struct {
	ID        string
	ActorID   string
	Action    string
	Details   map[string]any
	CreatedAt time.Time
}

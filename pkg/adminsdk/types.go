package adminsdk

import (
	"encoding/json"
	"time"
)

// InviteUserRequest is the body of POST /v1/admin/invite-user.
type InviteUserRequest struct {
	Email string `json:"email"`
}

// InviteUserResponse is the success envelope of the invite endpoint. Data is
// the identity backend's raw invitation result, passed through untouched.
type InviteUserResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// InviteErrorResponse is the error envelope of the invite endpoint.
type InviteErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// DeleteUserRequest is the body of POST /v1/admin/delete-user.
type DeleteUserRequest struct {
	UserID string `json:"userId"`
}

// DeleteUserResponse is the success envelope of the delete endpoint.
type DeleteUserResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DeleteErrorResponse is the error envelope of the delete endpoint. Unlike
// the invite endpoint it carries no success field; the deployed front-end
// depends on both shapes as-is.
type DeleteErrorResponse struct {
	Error string `json:"error"`
}

// ActivityEntry is one audit record as returned by the activity endpoint.
type ActivityEntry struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

// ActivityResponse is the envelope of GET /v1/admin/activity.
type ActivityResponse struct {
	Entries []ActivityEntry `json:"entries"`
}

// HealthChecks reports the state of critical dependencies in readiness
// responses.
type HealthChecks struct {
	AuditSink       string `json:"audit_sink,omitempty"`
	IdentityBackend string `json:"identity_backend,omitempty"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

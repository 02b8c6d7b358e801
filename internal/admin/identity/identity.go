// Package identity wraps the hosted identity backend that owns accounts,
// credentials and role assignments. This service never verifies tokens itself;
// every bearer credential is resolved by the backend per request.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tksolution/admin/internal/admin/domain"
)

// ErrInvalidToken is returned when the backend refuses to resolve a bearer
// credential to an identity.
var ErrInvalidToken = errors.New("identity: invalid token")

// Service is the capability surface this service needs from the identity
// backend. Client talks to the real backend; Fake is the in-memory variant
// used in tests and local development.
type Service interface {
	// ResolveIdentity resolves a bearer credential to the caller's identity.
	ResolveIdentity(ctx context.Context, token string) (domain.Identity, error)

	// ListRoles returns the role names held by userID, restricted to the
	// given filter when non-empty.
	ListRoles(ctx context.Context, userID string, filter []string) ([]string, error)

	// InviteByEmail triggers an email invitation for a new account. The raw
	// invitation result is returned for passthrough to the caller.
	InviteByEmail(ctx context.Context, email, redirectTo string) (json.RawMessage, error)

	// DeleteUser permanently removes an account. Dependent data is cascaded
	// by the backend.
	DeleteUser(ctx context.Context, userID string) error
}

// BackendError carries an error reported by the identity backend. Its message
// is surfaced verbatim to API callers.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("identity backend: %s (status %d)", e.Message, e.Status)
}

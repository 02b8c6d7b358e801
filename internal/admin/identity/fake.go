package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tksolution/admin/internal/admin/domain"
)

// Fake is an in-memory Service for tests and local development. Tokens are
// opaque strings mapped directly to identities; no cryptography is involved.
//
// It records invite and delete calls so tests can assert that guard clauses
// short-circuit before any side effect happens.
type Fake struct {
	mu sync.Mutex

	identities map[string]domain.Identity // token -> identity
	roles      map[string][]string        // user id -> role names

	// InviteErr / DeleteErr, when set, are returned by the respective call.
	InviteErr error
	DeleteErr error

	invited []string
	deleted []string
}

var _ Service = (*Fake)(nil)

// NewFake creates an empty fake backend.
func NewFake() *Fake {
	return &Fake{
		identities: make(map[string]domain.Identity),
		roles:      make(map[string][]string),
	}
}

// AddUser registers a user with the given roles and returns the identity plus
// a bearer token that resolves to it. User ids follow the backend's UUID
// convention.
func (f *Fake) AddUser(email string, roles ...string) (domain.Identity, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := domain.Identity{ID: uuid.NewString(), Email: email}
	token := "token-" + uuid.NewString()

	f.identities[token] = id
	f.roles[id.ID] = roles
	return id, token
}

func (f *Fake) ResolveIdentity(_ context.Context, token string) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.identities[token]
	if !ok {
		return domain.Identity{}, ErrInvalidToken
	}
	return id, nil
}

func (f *Fake) ListRoles(_ context.Context, userID string, filter []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, role := range f.roles[userID] {
		if len(filter) == 0 || domain.HasRole(filter, role) {
			out = append(out, role)
		}
	}
	return out, nil
}

func (f *Fake) InviteByEmail(_ context.Context, email, redirectTo string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.InviteErr != nil {
		return nil, f.InviteErr
	}

	f.invited = append(f.invited, email)
	result := fmt.Sprintf(`{"id":%q,"email":%q,"redirect_to":%q}`, uuid.NewString(), email, redirectTo)
	return json.RawMessage(result), nil
}

func (f *Fake) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	if _, ok := f.roles[userID]; !ok {
		return &BackendError{Status: 404, Message: "user not found"}
	}

	delete(f.roles, userID)
	for token, id := range f.identities {
		if id.ID == userID {
			delete(f.identities, token)
		}
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

// Invited returns the emails passed to InviteByEmail, in order.
func (f *Fake) Invited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.invited...)
}

// Deleted returns the user ids passed to DeleteUser, in order.
func (f *Fake) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

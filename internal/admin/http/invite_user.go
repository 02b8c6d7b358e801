package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/tksolution/admin/internal/admin/audit"
	"github.com/tksolution/admin/internal/admin/domain"
	"github.com/tksolution/admin/internal/admin/identity"
	"github.com/tksolution/admin/pkg/adminsdk"
	"github.com/tksolution/admin/pkg/httpx"
	"github.com/tksolution/admin/pkg/slogx"
)

// Same light-weight shape check the front-end applies: something, an @,
// something, a dot, something. The backend does the real validation.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// InviteUserHandler sends an email invitation to join the workspace. Only
// callers holding the admin role may invite, and every successful invite is
// recorded in the activity log.
type InviteUserHandler struct {
	Identity identity.Service
	Audit    audit.Sink
}

// ServeHTTP handles POST /v1/admin/invite-user.
//
//	@Summary		Invite a user by email
//	@Description	Sends an email invitation through the identity backend and
//	@Description	records the invite in the activity log.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminsdk.InviteUserRequest	true	"Invite Request"
//	@Success		200		{object}	adminsdk.InviteUserResponse
//	@Failure		400		{object}	adminsdk.InviteErrorResponse
//	@Failure		401		{object}	adminsdk.InviteErrorResponse
//	@Failure		403		{object}	adminsdk.InviteErrorResponse
//	@Router			/v1/admin/invite-user [post]
func (h *InviteUserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, ok := bearerToken(r)
	if !ok {
		writeInviteError(w, http.StatusUnauthorized, "not authenticated: missing token")
		return
	}

	caller, err := h.Identity.ResolveIdentity(ctx, token)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidToken) {
			log.Warn("identity resolution failed", "error", err)
		}
		writeInviteError(w, http.StatusUnauthorized, "not authenticated: invalid token")
		return
	}

	roles, err := h.Identity.ListRoles(ctx, caller.ID, []string{domain.RoleAdmin})
	if err != nil || !domain.HasRole(roles, domain.RoleAdmin) {
		if err != nil {
			log.Warn("role lookup failed", "user_id", caller.ID, "error", err)
		}
		writeInviteError(w, http.StatusForbidden, "access denied: only administrators may invite users")
		return
	}

	var req adminsdk.InviteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInviteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeInviteError(w, http.StatusBadRequest, "email is required")
		return
	}
	if !emailPattern.MatchString(req.Email) {
		writeInviteError(w, http.StatusBadRequest, "invalid email")
		return
	}

	redirectTo := requestOrigin(r)
	if redirectTo != "" {
		redirectTo += "/update-password"
	}

	data, err := h.Identity.InviteByEmail(ctx, req.Email, redirectTo)
	if err != nil {
		log.Warn("invite rejected by identity backend", "email", req.Email, "error", err)
		writeInviteError(w, http.StatusBadRequest, backendMessage(err))
		return
	}

	// The invitation already went out; an audit failure must not turn the
	// response into an error.
	entry := domain.AuditEntry{
		ActorID: caller.ID,
		Action:  domain.ActionUserInvited,
		Details: map[string]any{"invited_email": req.Email},
	}
	if err := h.Audit.Append(ctx, entry); err != nil {
		log.Error("failed to record invite in activity log", "actor_id", caller.ID, "error", err)
	}

	log.Info("user invited", "actor_id", caller.ID, "email", req.Email)
	httpx.WriteJSON(w, http.StatusOK, adminsdk.InviteUserResponse{
		Success: true,
		Message: fmt.Sprintf("invitation sent to %s", req.Email),
		Data:    data,
	})
}

func writeInviteError(w http.ResponseWriter, status int, msg string) {
	httpx.WriteJSON(w, status, adminsdk.InviteErrorResponse{Success: false, Error: msg})
}

// backendMessage unwraps the human-readable message from an identity backend
// rejection so the front-end can surface it as-is.
func backendMessage(err error) string {
	var be *identity.BackendError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}

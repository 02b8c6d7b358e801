package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tksolution/admin/internal/admin/domain"
	"github.com/tksolution/admin/internal/admin/identity"
	"github.com/tksolution/admin/pkg/adminsdk"
	"github.com/tksolution/admin/pkg/httpx"
	"github.com/tksolution/admin/pkg/slogx"
)

// DeleteUserHandler permanently removes a user account. Admins may delete
// regular users; removing another privileged account additionally requires
// the tk_master role. Nobody can delete themselves.
type DeleteUserHandler struct {
	Identity identity.Service
}

// ServeHTTP handles POST /v1/admin/delete-user.
//
//	@Summary		Delete a user account
//	@Description	Removes the target account through the identity backend.
//	@Description	Deleting another administrator requires the tk_master role.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminsdk.DeleteUserRequest	true	"Delete Request"
//	@Success		200		{object}	adminsdk.DeleteUserResponse
//	@Failure		400		{object}	adminsdk.DeleteErrorResponse
//	@Failure		401		{object}	adminsdk.DeleteErrorResponse
//	@Failure		403		{object}	adminsdk.DeleteErrorResponse
//	@Failure		500		{object}	adminsdk.DeleteErrorResponse
//	@Router			/v1/admin/delete-user [post]
func (h *DeleteUserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, ok := bearerToken(r)
	if !ok {
		writeDeleteError(w, http.StatusUnauthorized, "not authenticated: missing token")
		return
	}

	caller, err := h.Identity.ResolveIdentity(ctx, token)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidToken) {
			log.Warn("identity resolution failed", "error", err)
		}
		writeDeleteError(w, http.StatusUnauthorized, "not authenticated: invalid token")
		return
	}

	callerRoles, err := h.Identity.ListRoles(ctx, caller.ID, domain.PrivilegedRoles)
	if err != nil || len(callerRoles) == 0 {
		if err != nil {
			log.Warn("role lookup failed", "user_id", caller.ID, "error", err)
		}
		writeDeleteError(w, http.StatusForbidden, "access denied: only administrators can delete users")
		return
	}

	var req adminsdk.DeleteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDeleteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeDeleteError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.UserID == caller.ID {
		writeDeleteError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	// A failed lookup leaves the target unprivileged rather than blocking
	// the deletion outright.
	targetRoles, err := h.Identity.ListRoles(ctx, req.UserID, domain.PrivilegedRoles)
	if err != nil {
		log.Warn("target role lookup failed", "user_id", req.UserID, "error", err)
	}
	if len(targetRoles) > 0 && !domain.HasRole(callerRoles, domain.RoleTkMaster) {
		writeDeleteError(w, http.StatusForbidden, "only tk_master may remove administrators")
		return
	}

	if err := h.Identity.DeleteUser(ctx, req.UserID); err != nil {
		log.Error("deletion rejected by identity backend", "user_id", req.UserID, "error", err)
		writeDeleteError(w, http.StatusInternalServerError, backendMessage(err))
		return
	}

	log.Info("user deleted", "actor_id", caller.ID, "user_id", req.UserID)
	httpx.WriteJSON(w, http.StatusOK, adminsdk.DeleteUserResponse{
		Success: true,
		Message: "user deleted successfully",
	})
}

func writeDeleteError(w http.ResponseWriter, status int, msg string) {
	httpx.WriteJSON(w, status, adminsdk.DeleteErrorResponse{Error: msg})
}

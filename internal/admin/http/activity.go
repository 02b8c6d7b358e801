package http

import (
	"net/http"
	"strconv"

	"github.com/tksolution/admin/internal/admin/audit"
	"github.com/tksolution/admin/internal/admin/domain"
	"github.com/tksolution/admin/internal/admin/identity"
	"github.com/tksolution/admin/pkg/adminsdk"
	"github.com/tksolution/admin/pkg/httpx"
	"github.com/tksolution/admin/pkg/slogx"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityHandler lists recent entries from the activity log, newest first.
type ActivityHandler struct {
	Identity identity.Service
	Audit    audit.Sink
}

// ServeHTTP handles GET /v1/admin/activity.
//
//	@Summary		List recent admin activity
//	@Description	Returns the most recent activity log entries, newest first.
//	@Tags			admin
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum entries to return (default 50, max 200)"
//	@Success		200		{object}	adminsdk.ActivityResponse
//	@Failure		401		{object}	adminsdk.DeleteErrorResponse
//	@Failure		403		{object}	adminsdk.DeleteErrorResponse
//	@Failure		500		{object}	adminsdk.DeleteErrorResponse
//	@Router			/v1/admin/activity [get]
func (h *ActivityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, ok := bearerToken(r)
	if !ok {
		writeDeleteError(w, http.StatusUnauthorized, "not authenticated: missing token")
		return
	}

	caller, err := h.Identity.ResolveIdentity(ctx, token)
	if err != nil {
		writeDeleteError(w, http.StatusUnauthorized, "not authenticated: invalid token")
		return
	}

	roles, err := h.Identity.ListRoles(ctx, caller.ID, domain.PrivilegedRoles)
	if err != nil || len(roles) == 0 {
		writeDeleteError(w, http.StatusForbidden, "access denied: administrators only")
		return
	}

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, maxActivityLimit)
		}
	}

	entries, err := h.Audit.ListRecent(ctx, limit)
	if err != nil {
		log.Error("failed to list activity log", "error", err)
		writeDeleteError(w, http.StatusInternalServerError, "failed to load activity log")
		return
	}

	out := make([]adminsdk.ActivityEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, adminsdk.ActivityEntry{
			ID:        e.ID,
			UserID:    e.ActorID,
			Action:    e.Action,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.ActivityResponse{Entries: out})
}

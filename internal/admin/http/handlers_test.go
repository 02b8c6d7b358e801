package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tksolution/admin/internal/admin/audit"
	"github.com/tksolution/admin/internal/admin/domain"
	"github.com/tksolution/admin/internal/admin/identity"
)

// newTestRouter builds a fully-wired router around a fake identity backend
// and an in-memory audit sink. Each call gets fresh rate limiter state.
func newTestRouter(t *testing.T) (*Router, *identity.Fake, *audit.Memory) {
	t.Helper()

	fake := identity.NewFake()
	sink := &audit.Memory{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := NewRouter(fake, sink, "test", logger)
	r.ApplyRoutes()
	return r, fake, sink
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestInviteUser(t *testing.T) {
	t.Run("missing token returns 401", func(t *testing.T) {
		r, fake, sink := newTestRouter(t)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/invite-user", "", map[string]string{"email": "new@example.com"})

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, false, body["success"])
		require.Equal(t, "not authenticated: missing token", body["error"])
		require.Empty(t, fake.Invited())
		require.Empty(t, sink.Entries())
	})

	t.Run("invalid token returns 401", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/invite-user", "bogus", map[string]string{"email": "new@example.com"})

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "not authenticated: invalid token", decodeBody(t, rec)["error"])
		require.Empty(t, fake.Invited())
	})

	t.Run("non-admin returns 403", func(t *testing.T) {
		r, fake, sink := newTestRouter(t)
		_, token := fake.AddUser("member@example.com")

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/invite-user", token, map[string]string{"email": "new@example.com"})

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "access denied: only administrators may invite users", decodeBody(t, rec)["error"])
		require.Empty(t, fake.Invited())
		require.Empty(t, sink.Entries())
	})

	t.Run("tk_master alone cannot invite", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("master@example.com", domain.RoleTkMaster)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/invite-user", token, map[string]string{"email": "new@example.com"})

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Empty(t, fake.Invited())
	})

	t.Run("missing email returns 400", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/invite-user", token, map[string]string{})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "email is required", decodeBody(t, rec)["error"])
		require.Empty(t, fake.Invited())
	})

	t.Run("malformed email returns 400", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)

		for _, email := range []string{"plain", "no@dot", "spaces in@mail.com", "@missing.local"} {
			rec := doRequest(t, r, http.MethodPost, "/v1/admin/invite-user", token, map[string]string{"email": email})
			require.Equal(t, http.StatusBadRequest, rec.Code, "email %q", email)
			require.Equal(t, "invalid email", decodeBody(t, rec)["error"])
		}
		require.Empty(t, fake.Invited())
	})

	t.Run("successful invite records audit entry", func(t *testing.T) {
		r, fake, sink := newTestRouter(t)
		admin, token := fake.AddUser("admin@example.com", domain.RoleAdmin)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/invite-user", token, map[string]string{"email": "new@example.com"})

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, true, body["success"])
		require.Contains(t, body["message"], "new@example.com")
		require.NotNil(t, body["data"])

		require.Equal(t, []string{"new@example.com"}, fake.Invited())

		entries := sink.Entries()
		require.Len(t, entries, 1)
		require.Equal(t, admin.ID, entries[0].ActorID)
		require.Equal(t, domain.ActionUserInvited, entries[0].Action)
		require.Equal(t, "new@example.com", entries[0].Details["invited_email"])
	})

	t.Run("backend rejection surfaces message with 400", func(t *testing.T) {
		r, fake, sink := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)
		fake.InviteErr = &identity.BackendError{Status: 422, Message: "user already registered"}

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/invite-user", token, map[string]string{"email": "dup@example.com"})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, false, body["success"])
		require.Equal(t, "user already registered", body["error"])
		require.Empty(t, sink.Entries())
	})

	t.Run("audit failure does not fail the request", func(t *testing.T) {
		r, fake, sink := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)
		sink.AppendErr = io.ErrClosedPipe

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/invite-user", token, map[string]string{"email": "new@example.com"})

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, []string{"new@example.com"}, fake.Invited())
	})

	t.Run("redirect target follows the Origin header", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)

		raw, err := json.Marshal(map[string]string{"email": "new@example.com"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/invite-user", bytes.NewReader(raw))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Origin", "https://app.example.com")

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data struct {
				RedirectTo string `json:"redirect_to"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "https://app.example.com/update-password", resp.Data.RedirectTo)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("missing token returns 401", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		target, _ := fake.AddUser("target@example.com")

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", "", map[string]string{"userId": target.ID})

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, "not authenticated: missing token", body["error"])
		require.NotContains(t, body, "success")
		require.Empty(t, fake.Deleted())
	})

	t.Run("invalid token returns 401", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", "bogus", map[string]string{"userId": "whatever"})

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "not authenticated: invalid token", decodeBody(t, rec)["error"])
		require.Empty(t, fake.Deleted())
	})

	t.Run("unprivileged caller returns 403", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("member@example.com")
		target, _ := fake.AddUser("target@example.com")

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{"userId": target.ID})

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "access denied: only administrators can delete users", decodeBody(t, rec)["error"])
		require.Empty(t, fake.Deleted())
	})

	t.Run("missing userId returns 400", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "userId is required", decodeBody(t, rec)["error"])
		require.Empty(t, fake.Deleted())
	})

	t.Run("self deletion returns 400", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		admin, token := fake.AddUser("admin@example.com", domain.RoleAdmin)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{"userId": admin.ID})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "cannot delete your own account", decodeBody(t, rec)["error"])
		require.Empty(t, fake.Deleted())
	})

	t.Run("admin cannot delete another admin", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)
		other, _ := fake.AddUser("other@example.com", domain.RoleAdmin)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{"userId": other.ID})

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "only tk_master may remove administrators", decodeBody(t, rec)["error"])
		require.Empty(t, fake.Deleted())
	})

	t.Run("admin cannot delete a tk_master", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)
		master, _ := fake.AddUser("master@example.com", domain.RoleTkMaster)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{"userId": master.ID})

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Empty(t, fake.Deleted())
	})

	t.Run("tk_master can delete an admin", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("master@example.com", domain.RoleTkMaster)
		other, _ := fake.AddUser("other@example.com", domain.RoleAdmin)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{"userId": other.ID})

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, true, body["success"])
		require.Equal(t, "user deleted successfully", body["message"])
		require.Equal(t, []string{other.ID}, fake.Deleted())
	})

	t.Run("admin can delete a regular user", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)
		target, _ := fake.AddUser("target@example.com")

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{"userId": target.ID})

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, []string{target.ID}, fake.Deleted())
	})

	t.Run("backend failure surfaces message with 500", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)
		target, _ := fake.AddUser("target@example.com")
		fake.DeleteErr = &identity.BackendError{Status: 500, Message: "database unavailable"}

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{"userId": target.ID})

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "database unavailable", decodeBody(t, rec)["error"])
	})

	t.Run("repeat deletion fails once the user is gone", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)
		target, _ := fake.AddUser("target@example.com")

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{"userId": target.ID})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{"userId": target.ID})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "user not found", decodeBody(t, rec)["error"])
		require.Equal(t, []string{target.ID}, fake.Deleted())
	})

	t.Run("deletion is not audited", func(t *testing.T) {
		r, fake, sink := newTestRouter(t)
		_, token := fake.AddUser("admin@example.com", domain.RoleAdmin)
		target, _ := fake.AddUser("target@example.com")

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/delete-user", token, map[string]string{"userId": target.ID})

		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, sink.Entries())
	})
}

func TestActivity(t *testing.T) {
	t.Run("requires privileged caller", func(t *testing.T) {
		r, fake, _ := newTestRouter(t)
		_, token := fake.AddUser("member@example.com")

		rec := doRequest(t, r, http.MethodGet, "/v1/admin/activity", token, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = doRequest(t, r, http.MethodGet, "/v1/admin/activity", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns recent entries", func(t *testing.T) {
		r, fake, sink := newTestRouter(t)
		admin, token := fake.AddUser("admin@example.com", domain.RoleAdmin)
		require.NoError(t, sink.Append(t.Context(), domain.AuditEntry{
			ID:      "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			ActorID: admin.ID,
			Action:  domain.ActionUserInvited,
			Details: map[string]any{"invited_email": "new@example.com"},
		}))

		rec := doRequest(t, r, http.MethodGet, "/v1/admin/activity", token, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Entries []struct {
				UserID string `json:"user_id"`
				Action string `json:"action"`
			} `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Entries, 1)
		require.Equal(t, admin.ID, resp.Entries[0].UserID)
		require.Equal(t, domain.ActionUserInvited, resp.Entries[0].Action)
	})
}

func TestRouterCORS(t *testing.T) {
	t.Run("preflight answered with 200 and no body", func(t *testing.T) {
		r, _, _ := newTestRouter(t)

		req := httptest.NewRequest(http.MethodOptions, "/v1/admin/invite-user", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Body.String())
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "authorization, x-client-info, apikey, content-type", rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("error responses carry CORS headers", func(t *testing.T) {
		r, _, _ := newTestRouter(t)

		rec := doRequest(t, r, http.MethodPost, "/v1/admin/invite-user", "", map[string]string{"email": "x@example.com"})

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("livez always ok", func(t *testing.T) {
		r, _, _ := newTestRouter(t)

		rec := doRequest(t, r, http.MethodGet, "/livez", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", decodeBody(t, rec)["status"])
	})

	t.Run("readyz degrades when a check fails", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		r := NewRouter(identity.NewFake(), &audit.Memory{}, "test", logger)
		r.AuditCheck = func(context.Context) error { return io.ErrClosedPipe }
		r.ApplyRoutes()

		rec := doRequest(t, r, http.MethodGet, "/readyz", "", nil)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "degraded", decodeBody(t, rec)["status"])
	})

	t.Run("readyz ok without checks", func(t *testing.T) {
		r, _, _ := newTestRouter(t)

		rec := doRequest(t, r, http.MethodGet, "/readyz", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", decodeBody(t, rec)["status"])
	})
}

package audit_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tksolution/admin/internal/admin/audit"
	"github.com/tksolution/admin/internal/admin/domain"
)

func TestRESTSinkAppend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/v1/activity_logs", r.URL.Path)
		require.Equal(t, "service-key", r.Header.Get("apikey"))
		require.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sink := audit.NewRESTSink(srv.URL, "service-key")
	err := sink.Append(context.Background(), domain.AuditEntry{
		ActorID: "actor-1",
		Action:  domain.ActionUserInvited,
		Details: map[string]any{"invited_email": "new@co.com"},
	})
	require.NoError(t, err)

	require.Equal(t, "actor-1", got["user_id"])
	require.Equal(t, "user_invited", got["action"])
	require.NotEmpty(t, got["id"], "entry id should be assigned before the write")
}

func TestRESTSinkAppendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sink := audit.NewRESTSink(srv.URL, "service-key")
	err := sink.Append(context.Background(), domain.AuditEntry{Action: "x"})
	require.Error(t, err)
}

func TestRESTSinkListRecent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "created_at.desc", q.Get("order"))
		require.Equal(t, "2", q.Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"b","user_id":"actor-1","action":"user_invited","details":{"invited_email":"new@co.com"},"created_at":"2026-08-01T12:01:00Z"},
			{"id":"a","user_id":"actor-1","action":"user_invited","details":{},"created_at":"2026-08-01T12:00:00Z"}
		]`))
	}))
	defer srv.Close()

	sink := audit.NewRESTSink(srv.URL, "service-key")
	entries, err := sink.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "b", entries[0].ID)
	require.Equal(t, map[string]any{"invited_email": "new@co.com"}, entries[0].Details)
}

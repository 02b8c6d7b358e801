package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		authz     string
		wantToken string
		wantOK    bool
	}{
		{name: "missing header", authz: "", wantOK: false},
		{name: "wrong scheme", authz: "Basic abc123", wantOK: false},
		{name: "bearer with no token", authz: "Bearer ", wantOK: false},
		{name: "valid bearer", authz: "Bearer sometoken", wantToken: "sometoken", wantOK: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.authz != "" {
				req.Header.Set("Authorization", tc.authz)
			}

			token, ok := bearerToken(req)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.wantToken, token)
		})
	}
}

func TestRequestOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		referer string
		want    string
	}{
		{name: "origin header wins", origin: "https://app.example.com", referer: "https://other.example.com/page", want: "https://app.example.com"},
		{name: "referer stripped to scheme and host", referer: "https://app.example.com/settings/users?tab=2", want: "https://app.example.com"},
		{name: "referer with port", referer: "http://localhost:3000/admin", want: "http://localhost:3000"},
		{name: "neither header", want: ""},
		{name: "unparseable referer", referer: "not a url", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.referer != "" {
				req.Header.Set("Referer", tc.referer)
			}

			require.Equal(t, tc.want, requestOrigin(req))
		})
	}
}

func TestEmailPattern(t *testing.T) {
	valid := []string{"a@b.co", "user.name+tag@sub.example.com", "x@y.z"}
	invalid := []string{"", "plain", "no@dot", "two words@mail.com", "@missing.local", "trailing@dot."}

	for _, email := range valid {
		require.True(t, emailPattern.MatchString(email), "expected %q to be accepted", email)
	}
	for _, email := range invalid {
		require.False(t, emailPattern.MatchString(email), "expected %q to be rejected", email)
	}
}

package http

import (
	"net/http"
	"net/url"
	"strings"
)

// bearerToken extracts the bearer credential from the Authorization header.
// The token is never inspected locally; the identity backend is the sole
// verifier.
func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	if token == "" {
		return "", false
	}
	return token, true
}

// requestOrigin returns the front-end origin of the request: the Origin
// header when present, otherwise the scheme and host of the Referer, else "".
func requestOrigin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}

	referer := r.Header.Get("Referer")
	if referer == "" {
		return ""
	}

	u, err := url.Parse(referer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tksolution/admin/internal/admin/domain"
)

// Client is the REST client for the hosted identity backend. The backend
// exposes an auth API (identity resolution, invites, admin deletion) and a
// table API (role assignments).
//
// Two credentials are in play: the anon key accompanies caller-scoped
// requests, the service-role key authorises privileged admin requests. The
// caller's own bearer token is only ever forwarded, never inspected.
type Client struct {
	BaseURL        string
	AnonKey        string
	ServiceRoleKey string
	HTTPClient     *http.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a backend client for the given project base URL.
func NewClient(baseURL, anonKey, serviceRoleKey string) *Client {
	return &Client{
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		AnonKey:        anonKey,
		ServiceRoleKey: serviceRoleKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ResolveIdentity resolves the caller's bearer token via the backend's user
// endpoint. Any refusal maps to ErrInvalidToken.
func (c *Client) ResolveIdentity(ctx context.Context, token string) (domain.Identity, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/v1/user", nil, map[string]string{
		"apikey":        c.AnonKey,
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return domain.Identity{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Identity{}, ErrInvalidToken
	}

	var body struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Identity{}, fmt.Errorf("decode identity response: %w", err)
	}
	if body.ID == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{ID: body.ID, Email: body.Email}, nil
}

// ListRoles reads role assignments from the backend's user_roles table using
// the service-role key, so row-level security never hides rows from us.
func (c *Client) ListRoles(ctx context.Context, userID string, filter []string) ([]string, error) {
	q := url.Values{}
	q.Set("select", "role")
	q.Set("user_id", "eq."+userID)
	if len(filter) > 0 {
		q.Set("role", "in.("+strings.Join(filter, ",")+")")
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/rest/v1/user_roles?"+q.Encode(), nil, c.serviceHeaders())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.backendError(resp)
	}

	var rows []struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode role response: %w", err)
	}

	roles := make([]string, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.Role)
	}
	return roles, nil
}

// InviteByEmail asks the backend to create a pending account and send the
// invitation email. An empty redirectTo is accepted by the backend as "no
// redirect".
func (c *Client) InviteByEmail(ctx context.Context, email, redirectTo string) (json.RawMessage, error) {
	path := "/auth/v1/invite"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	payload, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return nil, err
	}

	headers := c.serviceHeaders()
	headers["Content-Type"] = "application/json"

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(payload), headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.backendError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read invite response: %w", err)
	}
	return json.RawMessage(data), nil
}

// DeleteUser permanently removes the account through the backend's admin API.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	path := "/auth/v1/admin/users/" + url.PathEscape(userID)

	resp, err := c.doRequest(ctx, http.MethodDelete, path, nil, c.serviceHeaders())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.backendError(resp)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Health probes the backend's auth health endpoint. Used by readiness checks.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/v1/health", nil, map[string]string{
		"apikey": c.AnonKey,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity backend unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) serviceHeaders() map[string]string {
	return map[string]string{
		"apikey":        c.ServiceRoleKey,
		"Authorization": "Bearer " + c.ServiceRoleKey,
	}
}

func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// backendError extracts a human-readable message from an error response. The
// backend is not consistent about its error shape, so several fields are
// tried before falling back to the HTTP status text.
func (c *Client) backendError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	_ = json.Unmarshal(data, &body)

	message := body.Msg
	if message == "" {
		message = body.Message
	}
	if message == "" {
		message = body.ErrorDescription
	}
	if message == "" {
		message = body.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &BackendError{Status: resp.StatusCode, Message: message}
}

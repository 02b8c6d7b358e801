package adminsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client calls the admin service on behalf of an already-authenticated user.
// The bearer token is passed per call; the client holds no credentials.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Origin, when set, is sent with invite requests so the service can
	// compute the password-setup redirect for the right front-end origin.
	Origin string
}

// NewClient creates an admin service client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// InviteUser triggers an email invitation for a new account.
func (c *Client) InviteUser(ctx context.Context, token, email string) (*InviteUserResponse, error) {
	body, err := json.Marshal(InviteUserRequest{Email: email})
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if c.Origin != "" {
		headers["Origin"] = c.Origin
	}

	resp, err := c.doRequest(ctx, token, "/v1/admin/invite-user", bytes.NewReader(body), headers)
	if err != nil {
		return nil, err
	}

	var out InviteUserResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser permanently removes an account.
func (c *Client) DeleteUser(ctx context.Context, token, userID string) (*DeleteUserResponse, error) {
	body, err := json.Marshal(DeleteUserRequest{UserID: userID})
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, token, "/v1/admin/delete-user", bytes.NewReader(body),
		map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return nil, err
	}

	var out DeleteUserResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListActivity returns up to limit recent audit entries, newest first.
func (c *Client) ListActivity(ctx context.Context, token string, limit int) ([]ActivityEntry, error) {
	path := "/v1/admin/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var out ActivityResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *Client) doRequest(
	ctx context.Context,
	token, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// decodeJSON decodes a success response into target, or returns an APIError
// for non-200 responses. Both error envelope shapes carry an "error" field.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &envelope)
		if envelope.Error == "" {
			envelope.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

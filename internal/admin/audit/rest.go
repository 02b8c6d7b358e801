package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tksolution/admin/internal/admin/domain"
	"github.com/tksolution/admin/pkg/idx"
)

// RESTSink writes audit entries to the hosted backend's activity_logs table
// through its table API, the same table the product front-end reads. This is
// the default sink in hosted deployments.
type RESTSink struct {
	BaseURL        string
	ServiceRoleKey string
	HTTPClient     *http.Client
}

var _ Sink = (*RESTSink)(nil)

func NewRESTSink(baseURL, serviceRoleKey string) *RESTSink {
	return &RESTSink{
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		ServiceRoleKey: serviceRoleKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *RESTSink) Append(ctx context.Context, entry domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = idx.New().String()
	}

	payload, err := json.Marshal(map[string]any{
		"id":      entry.ID,
		"user_id": entry.ActorID,
		"action":  entry.Action,
		"details": entry.Details,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.BaseURL+"/rest/v1/activity_logs", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("audit append rejected: status %d", resp.StatusCode)
	}
	return nil
}

func (s *RESTSink) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	q := url.Values{}
	q.Set("select", "id,user_id,action,details,created_at")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.BaseURL+"/rest/v1/activity_logs?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audit list rejected: status %d", resp.StatusCode)
	}

	var rows []struct {
		ID        string         `json:"id"`
		UserID    string         `json:"user_id"`
		Action    string         `json:"action"`
		Details   map[string]any `json:"details"`
		CreatedAt time.Time      `json:"created_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode activity response: %w", err)
	}

	entries := make([]domain.AuditEntry, len(rows))
	for i, row := range rows {
		entries[i] = domain.AuditEntry{
			ID:        row.ID,
			ActorID:   row.UserID,
			Action:    row.Action,
			Details:   row.Details,
			CreatedAt: row.CreatedAt,
		}
	}
	return entries, nil
}

func (s *RESTSink) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.ServiceRoleKey)
	req.Header.Set("Authorization", "Bearer "+s.ServiceRoleKey)
}

// Package client provides read access to the vidgate API for the watch UI.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client wraps vidgate API access.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new vidgate API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// QueueStats contains job queue counts.
type QueueStats struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Retrying   int `json:"retrying"`
}

// Stats is the aggregate view served by /api/v1/stats.
type Stats struct {
	TotalChecks  int        `json:"total_checks"`
	ValidSources int        `json:"valid_sources"`
	Queue        QueueStats `json:"queue"`
}

// Outcome mirrors a probe outcome.
type Outcome struct {
	FinalURL     string    `json:"final_url"`
	HeadStatus   *int      `json:"head_status"`
	RangeStatus  *int      `json:"range_status"`
	ContentType  string    `json:"content_type"`
	HasFtyp      bool      `json:"has_ftyp"`
	Valid        bool      `json:"valid"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
	CheckedAt    time.Time `json:"checked_at"`
	DurationMs   int64     `json:"duration_ms"`
}

// Check represents one source check.
type Check struct {
	CheckID       string     `json:"check_id"`
	SourceURL     string     `json:"source_url"`
	CorrelationID string     `json:"correlation_id"`
	Status        string     `json:"status"`
	Outcome       *Outcome   `json:"outcome"`
	Error         string     `json:"error"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// Health is the readiness payload from /ready.
type Health struct {
	Status string      `json:"status"`
	Queue  *QueueStats `json:"queue"`
}

// GetStats fetches aggregate check and queue stats.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	body, err := c.get(ctx, "/api/v1/stats", nil)
	if err != nil {
		return nil, err
	}
	var stats Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("parse stats: %w", err)
	}
	return &stats, nil
}

// ListChecks fetches recent checks, newest first.
func (c *Client) ListChecks(ctx context.Context, limit int) ([]Check, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.get(ctx, "/api/v1/checks", params)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Checks []Check `json:"checks"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse checks: %w", err)
	}
	return payload.Checks, nil
}

// GetCheck fetches one check with its full outcome.
func (c *Client) GetCheck(ctx context.Context, checkID string) (*Check, error) {
	body, err := c.get(ctx, "/api/v1/checks/"+url.PathEscape(checkID), nil)
	if err != nil {
		return nil, err
	}
	var check Check
	if err := json.Unmarshal(body, &check); err != nil {
		return nil, fmt.Errorf("parse check: %w", err)
	}
	return &check, nil
}

// Ready fetches the readiness status.
func (c *Client) Ready(ctx context.Context) (*Health, error) {
	body, err := c.get(ctx, "/ready", nil)
	if err != nil {
		return nil, err
	}
	var health Health
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("parse health: %w", err)
	}
	return &health, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return body, nil
}

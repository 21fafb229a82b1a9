// Package supabase implements the remote sync client for the pet_records
// and token_usage tables over the PostgREST API.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sdpower/ccpet-go/internal/types"
)

// Config identifies the Supabase project.
type Config struct {
	URL    string
	APIKey string
}

// Configured reports whether both the project URL and API key are set.
func (c Config) Configured() bool {
	return c.URL != "" && c.APIKey != ""
}

// Client talks to the Supabase REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	now     func() time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// SetNow replaces the clock, for tests.
func (c *Client) SetNow(now func() time.Time) {
	c.now = now
}

// doRequest issues one REST call and returns the response status and body.
// prefer, when non-empty, is sent as the PostgREST Prefer header.
func (c *Client) doRequest(ctx context.Context, method, path, prefer string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func isSuccess(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}

// periodFilter maps a leaderboard period onto a usage_date constraint.
// today matches exactly; 7d/30d are inclusive lower bounds; all is
// unconstrained (empty op).
func periodFilter(p types.Period, now time.Time) (op, date string) {
	switch p {
	case types.PeriodToday:
		return "eq", now.Format("2006-01-02")
	case types.Period7d:
		return "gte", now.AddDate(0, 0, -7).Format("2006-01-02")
	case types.Period30d:
		return "gte", now.AddDate(0, 0, -30).Format("2006-01-02")
	default:
		return "", ""
	}
}

// Package daemonctl provides the HTTP client the CLI uses to talk to a
// running montage daemon.
package daemonctl

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

	"montage/internal/api"
	"montage/internal/jobs"
	"montage/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Client talks to the daemon's job API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client for the daemon listening at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Submit posts a job request and returns the accepted job summary.
func (c *Client) Submit(ctx context.Context, req jobs.Request) (api.JobSummary, error) {
	var summary api.JobSummary
	body, err := json.Marshal(req)
	if err != nil {
		return summary, fmt.Errorf("encode request: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "/video-jobs", bytes.NewReader(body), http.StatusAccepted, &summary)
	return summary, err
}

// Job fetches one job by id. An unknown id is reported with an error that
// matches services.ErrNotFound.
func (c *Client) Job(ctx context.Context, id string) (api.JobSummary, error) {
	var summary api.JobSummary
	err := c.do(ctx, http.MethodGet, "/video-jobs/"+url.PathEscape(id), nil, http.StatusOK, &summary)
	return summary, err
}

// Jobs lists jobs, optionally filtered to one status.
func (c *Client) Jobs(ctx context.Context, status string) ([]api.JobSummary, error) {
	path := "/video-jobs"
	if status = strings.TrimSpace(status); status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var summaries []api.JobSummary
	err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &summaries)
	return summaries, err
}

// Status fetches daemon runtime state.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var status api.StatusResponse
	err := c.do(ctx, http.MethodGet, "/status", nil, http.StatusOK, &status)
	return status, err
}

// Health probes the daemon liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var health api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, &health); err != nil {
		return err
	}
	if !health.OK {
		return fmt.Errorf("daemon reported unhealthy")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, wantStatus int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w (is the daemon running?)", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return c.statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	detail := ""
	var body api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		detail = body.Detail
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", services.ErrNotFound, detail)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", services.ErrValidation, detail)
	default:
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, detail)
	}
}

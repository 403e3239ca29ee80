// Package client is a thin HTTP wrapper for a versioned resource API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to one resource API server.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

// New creates a client for the given base URL.
func New(url string) *Client {
	return &Client{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ResourceState is the refresh-endpoint response body.
type ResourceState struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
	Status  string `json:"status"`
}

// Do issues one request and returns the status code and raw body. Transport
// failures return an error; HTTP-level failures do not.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// GetResource fetches a resource's current state.
func (c *Client) GetResource(ctx context.Context, id string) (*ResourceState, error) {
	status, data, err := c.Do(ctx, http.MethodGet, "/resources/"+id, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get resource %s: status %d: %s", id, status, data)
	}
	var st ResourceState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode resource %s: %w", id, err)
	}
	return &st, nil
}

// Health probes the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	status, data, err := c.Do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", status, data)
	}
	return nil
}

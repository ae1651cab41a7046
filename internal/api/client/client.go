package client

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

	"peoplecatalog/internal/api/dto/common"
)

// DefaultTimeout is the fixed per-request timeout. There is no retry
// and no backoff; a timeout surfaces like any other transport failure.
const DefaultTimeout = 15000 * time.Millisecond

// Client is a thin JSON HTTP adapter with a fixed base URL and timeout.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL. A zero timeout falls
// back to DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs a JSON request against path. Query parameters are
// appended when params is non-empty, body is JSON-encoded when non-nil
// and a 2xx response body is decoded into out when out is non-nil.
// Every failure is returned as a *RequestError; callers classify it at
// the presentation boundary, never here.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{
			Method:  method,
			Path:    path,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{
			Method:  method,
			Path:    path,
			Message: err.Error(),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := &RequestError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("request failed with status code %d", resp.StatusCode),
		}
		// The problem body is optional; a non-JSON error body is kept
		// as a bare status error.
		var problem common.Problem
		if len(respBody) > 0 && json.Unmarshal(respBody, &problem) == nil {
			if problem.Title != "" || problem.Detail != "" || problem.Status != 0 || len(problem.Errors) > 0 {
				reqErr.Problem = &problem
			}
		}
		return reqErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	return nil
}

// Package adminclient calls the cache admin endpoints of a running server.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/onnwee/resep-nusantara/backend/internal/api/handlers"
	"github.com/onnwee/resep-nusantara/backend/internal/apierr"
	"github.com/onnwee/resep-nusantara/backend/internal/httpx"
)

// Client talks to /api/admin/cache/*.
type Client struct {
	baseURL string
	token   string
	retrier *httpx.Retrier
}

// New returns a Client for the server at baseURL. token may be empty when
// the server runs without ADMIN_API_TOKEN.
func New(baseURL, token string, timeout time.Duration, attempts int) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		retrier: &httpx.Retrier{
			Client:      &http.Client{Timeout: timeout},
			MaxAttempts: attempts,
			BaseDelay:   200 * time.Millisecond,
		},
	}
}

// Stats returns the query and fallback cache statistics.
func (c *Client) Stats(ctx context.Context) (handlers.CacheStatsResponse, error) {
	var out handlers.CacheStatsResponse
	err := c.do(ctx, http.MethodGet, "/api/admin/cache/stats", nil, &out)
	return out, err
}

// Invalidate removes the entries req names.
func (c *Client) Invalidate(ctx context.Context, req handlers.InvalidateRequest) (handlers.InvalidateResponse, error) {
	var out handlers.InvalidateResponse
	body, err := json.Marshal(req)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, http.MethodPost, "/api/admin/cache/invalidate", body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	resp, err := c.retrier.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e apierr.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != nil {
			return fmt.Errorf("%s %s: %d %s: %s", method, path, resp.StatusCode, e.Error.Code, e.Error.Message)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

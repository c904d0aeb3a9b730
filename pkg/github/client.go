// Package github provides GitHub API client functionality.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

const (
	apiBase      = "https://api.github.com"
	perPageLimit = 100 // GitHub API per_page limit
	maxPages     = 10  // Hard cap on pagination depth per listing
)

// Client handles all GitHub API interactions.
type Client struct {
	httpClient         HTTPDoer
	installationTokens map[string]string
	installationExpiry map[string]time.Time
	installationIDs    map[string]int
	token              string
	appID              string
	currentOrg         string
	privateKey         []byte
	tokenMutex         sync.RWMutex
	isAppAuth          bool
}

// Config holds configuration for creating a new GitHub client.
type Config struct {
	Token       string // Personal access token (for non-app auth)
	AppID       string
	AppKeyPath  string
	HTTPTimeout time.Duration
	UseAppAuth  bool
}

// New creates a new GitHub API client using a personal access token or
// GitHub App authentication.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.UseAppAuth {
		return newAppAuthClient(ctx, cfg)
	}
	return newPersonalTokenClient(cfg)
}

// SetCurrentOrg sets the organization whose installation token should be
// used for App-authenticated requests. A no-op for token auth.
func (c *Client) SetCurrentOrg(org string) {
	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()
	c.currentOrg = org
}

// drainAndCloseBody drains and closes an HTTP response body to prevent resource leaks.
func drainAndCloseBody(body io.ReadCloser) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		slog.Warn("Failed to drain response body", "error", err)
	}
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "error", err)
	}
}

// doRequest makes an HTTP request to the GitHub API with retry on server
// and transport errors. Client errors (auth, rate limit, not found) are
// returned to the caller unretried per the propagation policy.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body any) (*http.Response, error) {
	slog.Info("HTTP request", "component", "http", "method", method, "url", apiURL)

	authToken, err := c.authToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve auth token: %w", err)
	}

	var resp *http.Response
	err = retryWithBackoff(ctx, fmt.Sprintf("%s %s", method, apiURL), func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyBytes, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("failed to marshal request body: %w", err)
			}
			bodyReader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		if c.isAppAuth {
			req.Header.Set("Authorization", "Bearer "+authToken)
		} else {
			req.Header.Set("Authorization", "token "+authToken)
		}
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if method == http.MethodPost || method == http.MethodPatch || method == http.MethodPut {
			req.Header.Set("Content-Type", "application/json")
		}

		localResp, err := c.httpClient.Do(req) //nolint:bodyclose // body is closed by the caller
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if localResp.StatusCode >= http.StatusInternalServerError && localResp.StatusCode < 600 {
			drainAndCloseBody(localResp.Body)
			slog.Warn("Server error - will retry with backoff", "method", method, "url", apiURL, "status", localResp.StatusCode)
			return fmt.Errorf("http %d: server error", localResp.StatusCode)
		}

		resp = localResp
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("HTTP response", "component", "http", "method", method, "url", apiURL, "status", resp.StatusCode)
	return resp, nil
}

// statusError classifies a non-2xx response into the sentinel error taxonomy.
func statusError(resp *http.Response, operation string) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s (status %d): %w", operation, resp.StatusCode, ErrAuthentication)
	case http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return fmt.Errorf("%s (status %d): %w", operation, resp.StatusCode, ErrRateLimited)
		}
		return fmt.Errorf("%s (status %d): %w", operation, resp.StatusCode, ErrAuthentication)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s (status %d): %w", operation, resp.StatusCode, ErrRateLimited)
	case http.StatusNotFound:
		return fmt.Errorf("%s (status %d): %w", operation, resp.StatusCode, ErrNotFound)
	default:
		return fmt.Errorf("%s failed (status %d)", operation, resp.StatusCode)
	}
}

// getJSON fetches apiURL and decodes the response body into out.
func (c *Client) getJSON(ctx context.Context, apiURL, operation string, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return err
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return statusError(resp, operation)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return nil
}

// Retry constants.
const (
	maxRetryAttempts  = 4
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 30 * time.Second
)

// retryWithBackoff executes a function with exponential backoff and jitter.
func retryWithBackoff(ctx context.Context, operation string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(uint(maxRetryAttempts)),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(initialRetryDelay/4),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retry attempt", "component", "retry", "operation", operation, "attempt", n+1, "max_attempts", maxRetryAttempts, "error", err)
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			errStr := err.Error()
			return strings.Contains(errStr, "server error") ||
				strings.Contains(errStr, "connection refused") ||
				strings.Contains(errStr, "connection reset") ||
				strings.Contains(errStr, "timeout") ||
				strings.Contains(errStr, "temporary failure") ||
				strings.Contains(errStr, "EOF")
		}),
	)
}

// unixTime converts a Unix epoch to a time.Time, zero when unset.
func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// parseGitHubTime parses an RFC3339 timestamp, returning the zero time for
// empty or malformed input.
func parseGitHubTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		slog.Warn("Failed to parse timestamp", "value", s, "error", err)
		return time.Time{}
	}
	return t
}

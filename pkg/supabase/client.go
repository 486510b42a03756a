// Package supabase is a thin client for the Supabase auth (GoTrue) and
// REST (PostgREST) APIs used by the app, plus local verification of the
// access tokens Supabase issues.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

const (
	// ResetPasswordRedirect is where password reset emails send the user.
	ResetPasswordRedirect = "soshbru://reset-password"
	// OAuthRedirect receives the OAuth callback in the mobile app.
	OAuthRedirect = "soshbru://auth/callback"
)

// Config holds Supabase client configuration.
type Config struct {
	// URL is the project URL, e.g. https://xyz.supabase.co.
	URL     string
	AnonKey string
	Timeout time.Duration
}

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the Supabase client.
type Client struct {
	baseURL    string
	authURL    string
	restURL    string
	anonKey    string
	httpClient HTTPClient
	logger     *zap.Logger
	attempts   uint
	now        func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient sets the transport.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides the time source used to derive open/closed state.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: supabase URL is required", errors.ErrInvalidInput)
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("%w: supabase anon key is required", errors.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	base := strings.TrimRight(cfg.URL, "/")
	c := &Client{
		baseURL:    base,
		authURL:    base + "/auth/v1",
		restURL:    base + "/rest/v1",
		anonKey:    cfg.AnonKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zap.NewNop(),
		attempts:   3,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// request describes one call. token is the user's access token; empty
// means the anon key is used as bearer.
type request struct {
	method  string
	url     string
	body    any
	token   string
	headers map[string]string
}

// do performs r and decodes a successful response into out (if non-nil).
// Only GETs are retried; auth POSTs are not idempotent.
func (c *Client) do(ctx context.Context, r request, out any) error {
	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	attempts := uint(1)
	if r.method == http.MethodGet {
		attempts = c.attempts
	}

	var respBody []byte
	var status int
	err := retry.Do(
		func() error {
			var err error
			respBody, status, err = c.send(ctx, r, payload)
			if err != nil {
				return err
			}
			if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
				return fmt.Errorf("HTTP %d", status)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying supabase request",
				zap.String("url", r.url), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if status >= 400 {
		return parseError(respBody, status)
	}
	if err != nil {
		return fmt.Errorf("%w: supabase: %v", errors.ErrUnavailable, err)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, r request, payload []byte) ([]byte, int, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	bearer := c.anonKey
	if r.token != "" {
		bearer = r.token
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("failed to close response body", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

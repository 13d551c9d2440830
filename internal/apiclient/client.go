// Package apiclient sends authenticated requests to the LifeOS REST API.
//
// Every call injects the stored bearer token. An unauthorized response
// triggers one refresh of the token pair followed by exactly one retry; if
// that fails the stored session is cleared and the call returns
// apperrors.ErrSessionExpired. Other non-2xx responses are returned to the
// caller as-is.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"lifeos/internal/apperrors"
	"lifeos/internal/logging"
	"lifeos/internal/tokenstore"
)

// RefreshEndpoint exchanges a refresh token for a new pair.
const RefreshEndpoint = "/refresh"

// DefaultTimeout bounds a single HTTP exchange.
const DefaultTimeout = 10 * time.Second

// TokenStore is the subset of the token store the client needs.
type TokenStore interface {
	Get() tokenstore.Session
	Save(access, refresh string) error
	Clear() error
}

// Client wraps an http.Client with credential handling.
type Client struct {
	baseURL   string
	http      *http.Client
	store     TokenStore
	log       hclog.Logger
	timeout   time.Duration
	onExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSessionExpired registers a hook run after the session has been cleared
// because refresh failed.
func WithSessionExpired(fn func()) Option {
	return func(c *Client) { c.onExpired = fn }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		store:   store,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrDiscard(c.log).Named("apiclient")
	return c
}

// SetSessionExpired replaces the session-expired hook.
func (c *Client) SetSessionExpired(fn func()) {
	c.onExpired = fn
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client { return c.http }

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Store returns the token store.
func (c *Client) Store() TokenStore { return c.store }

// Options describes one request.
type Options struct {
	// Method defaults to GET.
	Method string

	// Query is appended to the endpoint.
	Query url.Values

	// JSON is encoded as the request body.
	JSON any

	// Form is encoded as an application/x-www-form-urlencoded body.
	// Ignored when JSON is set.
	Form url.Values

	// Header entries override the defaults, including Content-Type.
	Header http.Header

	// Anonymous skips credential injection and unauthorized handling.
	Anonymous bool
}

// Do is Request with retry allowed.
func (c *Client) Do(ctx context.Context, endpoint string, opts Options) (*Response, error) {
	return c.Request(ctx, endpoint, opts, true)
}

// Request performs the call. A 401 with allowRetry refreshes the token pair
// and retries once with allowRetry=false; a 401 without allowRetry, or a
// failed refresh, clears the session and returns ErrSessionExpired.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options, allowRetry bool) (*Response, error) {
	resp, err := c.send(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	if opts.Anonymous || resp.Status != http.StatusUnauthorized {
		return resp, nil
	}

	if !allowRetry {
		c.expire("unauthorized after refresh", endpoint)
		return nil, apperrors.ErrSessionExpired
	}

	if err := c.refresh(ctx); err != nil {
		c.log.Warn("token refresh failed", "path", endpoint, "error", err)
		c.expire("refresh failed", endpoint)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSessionExpired, err)
	}
	return c.Request(ctx, endpoint, opts, false)
}

func (c *Client) send(ctx context.Context, endpoint string, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	op := method + " " + endpoint

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, contentType, err := encodeBody(opts)
	if err != nil {
		return nil, &apperrors.RequestFailed{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint, opts.Query), body)
	if err != nil {
		return nil, &apperrors.RequestFailed{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !opts.Anonymous {
		if tok := c.store.Get().AccessToken; tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	for k, vs := range opts.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	hr, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", endpoint, "error", err)
		return nil, &apperrors.RequestFailed{Op: op, Err: err}
	}
	defer hr.Body.Close()

	data, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, &apperrors.RequestFailed{Op: op, Err: err}
	}
	c.log.Debug("request", "method", method, "path", endpoint, "status", hr.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond))

	resp := &Response{Status: hr.StatusCode}
	if hr.StatusCode != http.StatusNoContent {
		resp.Body = data
		if resp.Body == nil {
			resp.Body = []byte{}
		}
	}
	return resp, nil
}

// refresh exchanges the stored refresh token for a new pair and saves it.
func (c *Client) refresh(ctx context.Context) error {
	rt := c.store.Get().RefreshToken
	if rt == "" {
		return fmt.Errorf("no refresh token stored")
	}
	c.log.Debug("refreshing token pair")

	resp, err := c.send(ctx, RefreshEndpoint, Options{
		Method:    http.MethodPost,
		JSON:      map[string]string{"refresh_token": rt},
		Anonymous: true,
	})
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	var tok oauth2.Token
	if err := resp.Decode(&tok); err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("refresh response missing access_token")
	}
	return c.store.Save(tok.AccessToken, tok.RefreshToken)
}

func (c *Client) expire(reason, endpoint string) {
	c.log.Info("session expired", "reason", reason, "path", endpoint)
	if err := c.store.Clear(); err != nil {
		c.log.Error("failed to clear session", "error", err)
	}
	if c.onExpired != nil {
		c.onExpired()
	}
}

func (c *Client) url(endpoint string, q url.Values) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	u := c.baseURL + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func encodeBody(opts Options) (io.Reader, string, error) {
	switch {
	case opts.JSON != nil:
		b, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("encode body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	case opts.Form != nil:
		return strings.NewReader(opts.Form.Encode()), "application/x-www-form-urlencoded", nil
	default:
		return nil, "application/json", nil
	}
}

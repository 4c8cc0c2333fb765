// Package api is the gateway to the portal REST service.
//
// Every domain endpoint (auth, likes, views, search, notifications,
// categories, content, profile, admin) is a thin builder over Client.Do,
// the single call primitive. Do injects the bearer token, encodes and
// decodes JSON, and normalizes every failure into *APIError. It never
// retries; callers surface the error in their store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/abelbrown/harbor/internal/otel"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 10 << 20

// TokenSource yields the current bearer token, "" when logged out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Client performs JSON requests against the portal API.
type Client struct {
	baseURL *url.URL
	client  *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	events  *otel.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithRateLimit throttles request issue to rps requests per second.
// rps <= 0 leaves the client unthrottled.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithEvents attaches an event log for request tracing.
func WithEvents(l *otel.Logger) Option {
	return func(c *Client) { c.events = l }
}

// NewClient creates a Client for baseURL ("https://host/api").
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL: u,
		client:  &http.Client{Timeout: timeout},
		tokens:  TokenFunc(func() string { return "" }),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// resolve joins endpoint ("/likes/toggle?x=1") onto the base URL path.
func (c *Client) resolve(endpoint string) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("api: parse endpoint %q: %w", endpoint, err)
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

// Do sends a request and decodes a 2xx JSON response into out.
// body is JSON-encoded when non-nil; out may be nil to discard the response.
// Every failure is returned as *APIError.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any) error {
	target, err := c.resolve(endpoint)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error(), Err: err}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindNetwork, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return networkError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	rid := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "harbor/0.1")
	req.Header.Set("X-Request-ID", rid)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindRequestStart, Comp: "api", RequestID: rid, Method: method, Path: endpoint})

	resp, err := c.client.Do(req)
	if err != nil {
		apiErr := networkError(err)
		c.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindRequestError, Comp: "api", RequestID: rid, Method: method, Path: endpoint, Dur: time.Since(start), Err: apiErr.Message})
		return apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := httpError(resp.StatusCode, data)
		c.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindRequestError, Comp: "api", RequestID: rid, Method: method, Path: endpoint, Status: resp.StatusCode, Dur: time.Since(start), Err: apiErr.Message})
		return apiErr
	}

	c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindRequestComplete, Comp: "api", RequestID: rid, Method: method, Path: endpoint, Status: resp.StatusCode, Dur: time.Since(start)})

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Kind: KindHTTP, Status: resp.StatusCode, Message: "invalid response from server", Err: err}
	}
	return nil
}

// Get is Do with GET and no body.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out)
}

// Post is Do with POST.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out)
}

// Put is Do with PUT.
func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out)
}

// Delete is Do with DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, out)
}

// IsCanceled reports whether err came from a cancelled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

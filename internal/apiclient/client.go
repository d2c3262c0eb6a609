// Package apiclient is a Go client for the courier-service REST API.
//
// Reads are cached per collection and refreshed when the realtime notifier
// invalidates a bucket; writes always go to the server and invalidate the
// bucket they touched.
package apiclient

import (
	"bytes"
	"context"
	"courier-service/internal/realtime"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Error is a non-2xx response from the API.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

func (e *Error) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	cache   *Cache
	retry   realtime.Backoff
	logger  *zap.Logger

	// UserID is sent as the user-id header so the server can skip echoing
	// this client's own changes back to it.
	UserID string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRetry sets the policy for retrying reads on 429, 5xx and transport
// errors. MaxRetries 0 disables retries.
func WithRetry(b realtime.Backoff) Option {
	return func(cl *Client) { cl.retry = b }
}

func WithCache(c *Cache) Option {
	return func(cl *Client) { cl.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("new api client: invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   NewCache(),
		retry: realtime.Backoff{
			Initial:    200 * time.Millisecond,
			Max:        2 * time.Second,
			Multiplier: 2,
			MaxRetries: 3,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Cache returns the response cache; hand it to a realtime.Notifier.
func (c *Client) Cache() *Cache { return c.cache }

// WebSocketURL is the /ws-api endpoint on the same host.
func (c *Client) WebSocketURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws-api"
	return u.String()
}

// get reads path into out, serving from the cache when bucket is non-empty
// and a response for the same query is held.
func (c *Client) get(ctx context.Context, bucket, path string, query url.Values, out any) error {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}

	var gen uint64
	if bucket != "" {
		body, g, ok := c.cache.get(bucket, key)
		if ok {
			return json.Unmarshal(body, out)
		}
		gen = g
	}

	body, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, key, nil, "")
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api: decode %s: %w", path, err)
	}
	if bucket != "" && !c.cache.put(bucket, key, gen, body) {
		c.logger.Debug("discard read invalidated in flight", zap.String("bucket", bucket), zap.String("key", key))
	}
	return nil
}

// send performs a write once and invalidates the buckets it touched.
func (c *Client) send(ctx context.Context, method, path string, in, out any, invalidates ...string) error {
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, rd, "application/json")
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	for _, b := range invalidates {
		c.cache.Invalidate(b)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" && body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.UserID != "" {
		req.Header.Set("user-id", c.UserID)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read %s %s: %w", req.Method, req.URL.Path, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &Error{Status: res.StatusCode, Message: http.StatusText(res.StatusCode)}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Code = payload.Code
		}
		return nil, apiErr
	}
	return body, nil
}

// doWithRetry retries transport errors and retryable statuses. Each attempt
// gets a fresh request from build.
func (c *Client) doWithRetry(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		body, err := c.do(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var apiErr *Error
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if c.retry.MaxRetries == 0 || c.retry.Exhausted(attempt) {
			return nil, lastErr
		}

		delay := c.retry.Delay(attempt)
		c.logger.Debug("api request failed, retrying",
			zap.String("path", req.URL.Path),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

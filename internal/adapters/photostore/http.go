package photostore

import (
	"bytes"
	"context"
	"courier-service/internal/platform/obs"
	"courier-service/internal/ports"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("photo storage unavailable")

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (e *httpStatusError) retryable() bool {
	switch e.Code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// HTTPStore talks to an S3-style object API:
//
//	PUT    {base}/object/{bucket}/{name}
//	DELETE {base}/object/{bucket}/{name}
//	public {base}/object/public/{bucket}/{name}
type HTTPStore struct {
	baseURL string
	apiKey  string
	bucket  string
	session *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger

	maxAttempts int
	backoff     time.Duration
}

type HTTPOption func(*HTTPStore, *gobreaker.Settings)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore, _ *gobreaker.Settings) { s.session = c }
}

// WithRetry sets the attempt budget and first backoff for transient failures.
func WithRetry(maxAttempts int, backoff time.Duration) HTTPOption {
	return func(s *HTTPStore, _ *gobreaker.Settings) {
		s.maxAttempts = maxAttempts
		s.backoff = backoff
	}
}

// WithBreaker tunes the circuit breaker: trip after consecutive failed
// calls, then stay open for openFor.
func WithBreaker(consecutive uint32, openFor time.Duration) HTTPOption {
	return func(_ *HTTPStore, st *gobreaker.Settings) {
		st.Timeout = openFor
		st.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= consecutive }
	}
}

// OnBreakerChange registers fn to observe breaker state changes.
func OnBreakerChange(fn func(gobreaker.State)) HTTPOption {
	return func(s *HTTPStore, st *gobreaker.Settings) {
		prev := st.OnStateChange
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			if prev != nil {
				prev(name, from, to)
			}
			fn(to)
		}
	}
}

func NewHTTPStore(baseURL, apiKey, bucket string, logger *zap.Logger, opts ...HTTPOption) (*HTTPStore, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("new http photo store: base URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &HTTPStore{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		bucket:      bucket,
		session:     &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}

	settings := gobreaker.Settings{
		Name:    "photostore",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	for _, opt := range opts {
		opt(s, &settings)
	}
	s.breaker = gobreaker.NewCircuitBreaker(settings)

	return s, nil
}

func (s *HTTPStore) objectURL(name string) string {
	return s.baseURL + "/object/" + s.bucket + "/" + name
}

func (s *HTTPStore) publicURL(name string) string {
	return s.baseURL + "/object/public/" + s.bucket + "/" + name
}

func (s *HTTPStore) Upload(ctx context.Context, name, contentType string, body io.Reader) (url string, err error) {
	defer obs.Time(ctx, "photostore.http.Upload")(&err)

	name, err = cleanName(name)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	// Buffer once so every retry can resend the full body.
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("upload photo: read body: %w", err)
	}

	err = s.call(ctx, func() (*http.Request, error) {
		req, err := s.newRequest(ctx, http.MethodPut, s.objectURL(name), bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %q: %w", name, err)
	}
	return s.publicURL(name), nil
}

func (s *HTTPStore) Delete(ctx context.Context, name string) (err error) {
	defer obs.Time(ctx, "photostore.http.Delete")(&err)

	name, err = cleanName(name)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}

	err = s.call(ctx, func() (*http.Request, error) {
		return s.newRequest(ctx, http.MethodDelete, s.objectURL(name), nil)
	})
	if err != nil {
		return fmt.Errorf("delete photo: %q: %w", name, err)
	}
	return nil
}

// call runs one retried request through the breaker. Client errors are
// the caller's fault and do not count against the remote service.
func (s *HTTPStore) call(ctx context.Context, makeReq func() (*http.Request, error)) error {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		resp, err := s.doWithRetry(ctx, makeReq)
		if err != nil {
			var he *httpStatusError
			if errors.As(err, &he) && !he.retryable() {
				return he, nil
			}
			return nil, err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	if err != nil {
		return err
	}

	if he, ok := out.(*httpStatusError); ok {
		switch he.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ports.ErrNotFound, he)
		case http.StatusConflict:
			return fmt.Errorf("%w: %v", ports.ErrConflict, he)
		}
		return he
	}
	return nil
}

func (s *HTTPStore) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (s *HTTPStore) do(req *http.Request) (*http.Response, error) {
	resp, err := s.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx)
// with exponential backoff while respecting context cancellation.
func (s *HTTPStore) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	backoff := s.backoff
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := s.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			retry = he.retryable()
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == s.maxAttempts {
			return nil, lastErr
		}

		s.logger.Debug("retrying photo store request",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

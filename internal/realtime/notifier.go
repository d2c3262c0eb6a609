package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrRetriesExhausted is returned by Run when the backoff budget is spent.
var ErrRetriesExhausted = errors.New("realtime: reconnect retries exhausted")

// Invalidator drops a cached-data bucket so the next read re-fetches it.
type Invalidator interface {
	Invalidate(bucket string)
}

// Notifier keeps a connection to /ws-api open and invalidates cached data
// when the server announces a change. Events sent while disconnected are
// lost; callers rely on the invalidate-and-refetch cycle to catch up.
type Notifier struct {
	URL         string
	Header      http.Header
	Dialer      *websocket.Dialer
	Backoff     Backoff
	Invalidator Invalidator
	Auth        *AuthData
	Logger      *zap.Logger

	// OnMessage, when set, sees every decoded message after invalidation.
	OnMessage func(Message)

	connected atomic.Bool
}

func NewNotifier(url string, inv Invalidator, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		URL:         url,
		Dialer:      websocket.DefaultDialer,
		Backoff:     DefaultBackoff(),
		Invalidator: inv,
		Logger:      logger,
	}
}

// Connected reports whether a connection is currently open.
func (n *Notifier) Connected() bool { return n.connected.Load() }

// Run connects and processes messages until ctx is done, reconnecting per
// the backoff policy. The attempt counter resets after each successful dial.
func (n *Notifier) Run(ctx context.Context) error {
	attempt := 0
	for {
		err := n.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var dialErr *dialError
		if errors.As(err, &dialErr) {
			attempt++
		} else {
			attempt = 1
		}
		if n.Backoff.Exhausted(attempt) {
			return fmt.Errorf("%w: last error: %v", ErrRetriesExhausted, err)
		}

		delay := n.Backoff.Delay(attempt)
		n.Logger.Info("realtime disconnected, reconnecting",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

type dialError struct{ err error }

func (e *dialError) Error() string { return "dial: " + e.err.Error() }
func (e *dialError) Unwrap() error { return e.err }

// session runs one connection until it drops.
func (n *Notifier) session(ctx context.Context) error {
	dialer := n.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, n.URL, n.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return &dialError{err: err}
	}
	defer conn.Close()

	n.connected.Store(true)
	defer n.connected.Store(false)

	if n.Auth != nil {
		data, err := json.Marshal(n.Auth)
		if err != nil {
			return fmt.Errorf("encode auth: %w", err)
		}
		if err := conn.WriteJSON(Message{Type: TypeAuth, Data: data}); err != nil {
			return fmt.Errorf("send auth: %w", err)
		}
	}

	// The read loop below is the only reader; this goroutine is the only
	// writer from here on.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			n.Logger.Warn("ignoring malformed realtime message", zap.Error(err))
			continue
		}
		n.handle(msg)
	}
}

func (n *Notifier) handle(msg Message) {
	switch bs := BucketsFor(msg.Type); {
	case len(bs) > 0:
		if n.Invalidator != nil {
			for _, b := range bs {
				n.Invalidator.Invalidate(b)
			}
		}
	case msg.Type == TypeConnection:
		n.Logger.Debug("realtime connection confirmed")
	default:
		n.Logger.Debug("unhandled realtime message", zap.String("type", msg.Type))
	}

	if n.OnMessage != nil {
		n.OnMessage(msg)
	}
}

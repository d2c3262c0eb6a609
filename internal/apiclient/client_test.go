package apiclient

import (
	"context"
	"courier-service/internal/adapters/mirror"
	"courier-service/internal/adapters/photostore"
	"courier-service/internal/adapters/repositories"
	"courier-service/internal/api"
	"courier-service/internal/api/dto"
	"courier-service/internal/domain"
	"courier-service/internal/realtime"
	"courier-service/internal/services"
	"courier-service/internal/session"
	"courier-service/internal/workflow"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(n int) Option {
	return WithRetry(realtime.Backoff{Initial: time.Millisecond, Max: 5 * time.Millisecond, Multiplier: 2, MaxRetries: n})
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "/api"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}
}

func TestWebSocketURL(t *testing.T) {
	c, err := New("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws-api", c.WebSocketURL())

	c, err = New("https://kurir.example.com")
	require.NoError(t, err)
	assert.Equal(t, "wss://kurir.example.com/ws-api", c.WebSocketURL())
}

func TestReadsAreCachedPerQuery(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{"id":"p1","kurir_id":%q}]`, r.URL.Query().Get("kurirId"))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	pkgs, err := c.Packages(ctx, "K1")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "K1", pkgs[0].KurirID)

	_, err = c.Packages(ctx, "K1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	_, err = c.Packages(ctx, "K2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	c.Cache().Invalidate(BucketPackages)
	_, err = c.Packages(ctx, "K1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())

	hits, misses := c.Cache().Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 3, misses)
}

func TestInvalidationDuringReadIsNotLost(t *testing.T) {
	var (
		c      *Client
		status atomic.Value
	)
	status.Store("pickup")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := fmt.Sprintf(`[{"id":"p1","status_pengiriman":%q}]`, status.Load())
		if status.Load() == "pickup" {
			// The package changes while this response is on the wire.
			status.Store("terkirim")
			c.Cache().Invalidate(BucketPackages)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	var err error
	c, err = New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	pkgs, err := c.Packages(ctx, "")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "pickup", pkgs[0].Status)

	pkgs, err = c.Packages(ctx, "")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "terkirim", pkgs[0].Status)

	pkgs, err = c.Packages(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "terkirim", pkgs[0].Status)
	hits, _ := c.Cache().Stats()
	assert.Equal(t, 1, hits)
}

func TestWriteInvalidatesBucket(t *testing.T) {
	var gets atomic.Int32
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			gets.Add(1)
			fmt.Fprint(w, `[]`)
			return
		}
		gotUser = r.Header.Get("user-id")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"a1","kurir_id":"K1","activity_type":"pickup"}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	c.UserID = "K1"
	ctx := context.Background()

	_, err = c.Activities(ctx, "")
	require.NoError(t, err)
	a, err := c.CreateActivity(ctx, dto.CreateActivityRequest{KurirID: "K1", KurirName: "Kurir", ActivityType: "pickup"})
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "K1", gotUser)

	_, err = c.Activities(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, gets.Load())
}

func TestReadRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, fastRetry(3))
	require.NoError(t, err)

	_, err = c.Users(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestReadGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL, fastRetry(2))
	require.NoError(t, err)

	_, err = c.Users(context.Background())
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"user not found","code":"RESOURCE_NOT_FOUND"}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, fastRetry(3))
	require.NoError(t, err)

	u, err := c.UserByUserID(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.EqualValues(t, 1, calls.Load())

	_, err = c.Session(context.Background(), "missing")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "RESOURCE_NOT_FOUND", apiErr.Code)
	assert.Equal(t, "user not found", apiErr.Message)
	assert.True(t, IsNotFound(err))
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL, fastRetry(3))
	require.NoError(t, err)

	_, err = c.CreatePackage(context.Background(), dto.CreatePackageRequest{ResiNumber: "R1"})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRetryHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithRetry(realtime.Backoff{Initial: time.Hour, Max: time.Hour, Multiplier: 1, MaxRetries: 5}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Users(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// newServer runs the real router and hub over an in-memory store.
func newServer(t *testing.T) (*httptest.Server, *session.Registry) {
	t.Helper()
	store := repositories.NewMemoryStore()
	hub := realtime.NewHub(nil)
	sessions := session.NewRegistry()
	svc := services.New(store.Repositories(), hub, photostore.NewLocalStore(t.TempDir(), "/uploads"), sessions)

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Services:  svc,
		Workflows: workflow.NewManager(mirror.NewMemoryMirror(), nil),
		Realtime:  hub,
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return srv, sessions
}

func TestNotifierRefreshesCachedReads(t *testing.T) {
	srv, _ := newServer(t)
	watcher, err := New(srv.URL)
	require.NoError(t, err)
	writer, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	pkgs, err := watcher.Packages(ctx, "")
	require.NoError(t, err)
	require.Empty(t, pkgs)

	n := realtime.NewNotifier(watcher.WebSocketURL(), watcher.Cache(), nil)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- n.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()
	require.Eventually(t, n.Connected, 5*time.Second, 10*time.Millisecond)

	_, err = writer.CreatePackage(ctx, dto.CreatePackageRequest{
		ResiNumber: "RESI-1", KurirID: "PISTEST2025", KurirName: "Kurir",
		Pengirim: "A", Penerima: "B", AlamatPengirim: "Jl. A", AlamatPenerima: "Jl. B",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		pkgs, err := watcher.Packages(ctx, "")
		return err == nil && len(pkgs) == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWorkflowRoundTrip(t *testing.T) {
	srv, sessions := newServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Workflow(ctx, "tab-9")
	assert.True(t, IsNotFound(err), "unopened sessions have no workflow")

	sid := sessions.Open(&domain.User{ID: "u1", UserID: "PISTEST2025", Role: domain.RoleKurir}).SessionID

	st, err := c.SaveDailyInput(ctx, sid, dto.DailyInputRequest{TotalPackages: 1, CODPackages: 0, NonCODPackages: 1})
	require.NoError(t, err)
	assert.Equal(t, "scan", st.Step.String())

	res, err := c.Scan(ctx, sid, "JNT-77", false)
	require.NoError(t, err)
	assert.Equal(t, "JNT-77", res.Package.TrackingNumber)
	assert.True(t, strings.HasPrefix(res.Package.ID, "scanned_"))

	_, err = c.Scan(ctx, sid, "JNT-77", false)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	st, err = c.CompleteScan(ctx, sid)
	require.NoError(t, err)
	require.Len(t, st.DeliveryPackages, 1)

	st, err = c.MarkDelivered(ctx, sid, st.DeliveryPackages[0].ID, dto.DeliveredRequest{RecipientName: "Ani"})
	require.NoError(t, err)
	assert.Equal(t, "performance", st.Step.String())

	perf, err := c.Performance(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 100, perf.Summary.SuccessRate)
	assert.Equal(t, "A", perf.Summary.Grade)

	st, err = c.ResetWorkflow(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "input", st.Step.String())
}

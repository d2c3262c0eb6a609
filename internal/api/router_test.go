package api

import (
	"bytes"
	"context"
	"courier-service/internal/adapters/mirror"
	"courier-service/internal/adapters/photostore"
	"courier-service/internal/adapters/repositories"
	"courier-service/internal/domain"
	"courier-service/internal/platform/metrics"
	"courier-service/internal/services"
	"courier-service/internal/session"
	"courier-service/internal/workflow"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv      *httptest.Server
	store    *repositories.MemoryStore
	sessions *session.Registry
	dir      string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repositories.NewMemoryStore()
	dir := t.TempDir()
	sessions := session.NewRegistry()
	svc := services.New(store.Repositories(), nil, photostore.NewLocalStore(dir, "/uploads"), sessions)

	h := NewRouter(Deps{
		Services:      svc,
		Workflows:     workflow.NewManager(mirror.NewMemoryMirror(), nil),
		Metrics:       metrics.New(),
		UploadsDir:    dir,
		UploadsPrefix: "/uploads",
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: store, sessions: sessions, dir: dir}
}

// openSession registers a courier tab and returns its workflow base path.
func (e *testEnv) openSession(t *testing.T) string {
	t.Helper()
	tab := e.sessions.Open(&domain.User{ID: "u-kurir", UserID: "PISTEST2025", Name: "Kurir", Role: domain.RoleKurir})
	return "/api/workflow/" + tab.SessionID
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, out
}

type stateBody struct {
	Step             string           `json:"currentStep"`
	DeliveryPackages []domain.Package `json:"deliveryPackages"`
	Advanced         bool             `json:"advanced"`
	Guards           struct {
		CanProceedToDelivery    bool `json:"canProceedToDelivery"`
		CanProceedToPerformance bool `json:"canProceedToPerformance"`
	} `json:"guards"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func TestWorkflowRoutesFullDay(t *testing.T) {
	env := newTestEnv(t)
	base := env.openSession(t)

	res, body := env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "input", decode[stateBody](t, body).Step)

	res, body = env.do(t, http.MethodPost, base+"/input", map[string]int{"totalPackages": 2, "codPackages": 1, "nonCodPackages": 1})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	st := decode[stateBody](t, body)
	assert.Equal(t, "scan", st.Step)
	assert.True(t, st.Advanced)

	for _, tn := range []string{"JNE001", "JNE002"} {
		res, body = env.do(t, http.MethodPost, base+"/scan", map[string]any{"trackingNumber": tn, "isCOD": tn == "JNE001"})
		require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	}
	res, body = env.do(t, http.MethodPost, base+"/scan", map[string]any{"trackingNumber": "JNE001"})
	require.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "CONFLICT", decode[errorBody](t, body).Code)

	// Scanning alone does not leave the scan step.
	_, body = env.do(t, http.MethodGet, base, nil)
	st = decode[stateBody](t, body)
	assert.Equal(t, "scan", st.Step)
	assert.True(t, st.Guards.CanProceedToDelivery)

	res, body = env.do(t, http.MethodPost, base+"/scan/complete", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	st = decode[stateBody](t, body)
	assert.Equal(t, "delivery", st.Step)
	require.Len(t, st.DeliveryPackages, 2)
	first, second := st.DeliveryPackages[0].ID, st.DeliveryPackages[1].ID

	res, body = env.do(t, http.MethodPost, base+"/delivery/"+first+"/delivered", map[string]string{"recipientName": "Budi"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.Equal(t, "delivery", decode[stateBody](t, body).Step)

	res, body = env.do(t, http.MethodPost, base+"/delivery/"+second+"/pending", map[string]string{"reason": "recipient away"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.Equal(t, "pending", decode[stateBody](t, body).Step)

	res, body = env.do(t, http.MethodPost, base+"/pending/return", map[string]string{"leaderName": "Sari"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	ret := decode[struct {
		Returned int       `json:"returned"`
		State    stateBody `json:"state"`
	}](t, body)
	assert.Equal(t, 1, ret.Returned)
	assert.Equal(t, "performance", ret.State.Step)

	res, body = env.do(t, http.MethodGet, base+"/performance", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	perf := decode[struct {
		SessionID string           `json:"sessionId"`
		Summary   workflow.Summary `json:"summary"`
	}](t, body)
	assert.Equal(t, strings.TrimPrefix(base, "/api/workflow/"), perf.SessionID)
	assert.Equal(t, 2, perf.Summary.TotalPackages)
	assert.Equal(t, 1, perf.Summary.Delivered)
	assert.Equal(t, 1, perf.Summary.Returned)
	assert.Equal(t, 50, perf.Summary.SuccessRate)

	// Another session is untouched.
	_, body = env.do(t, http.MethodGet, env.openSession(t), nil)
	assert.Equal(t, "input", decode[stateBody](t, body).Step)

	res, body = env.do(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "input", decode[stateBody](t, body).Step)
}

func TestWorkflowRouteErrors(t *testing.T) {
	env := newTestEnv(t)
	base := env.openSession(t)

	res, body := env.do(t, http.MethodPost, base+"/input", map[string]int{"totalPackages": 3, "codPackages": 1, "nonCodPackages": 1})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, body).Code)

	res, body = env.do(t, http.MethodPost, base+"/input", map[string]int{"totalPackages": 0})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, decode[errorBody](t, body).Details, "totalPackages")

	res, _ = env.do(t, http.MethodPost, base+"/scan/complete", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	env.do(t, http.MethodPost, base+"/scan", map[string]string{"trackingNumber": "X1"})
	_, body = env.do(t, http.MethodPost, base+"/scan/complete", nil)
	id := decode[stateBody](t, body).DeliveryPackages[0].ID

	res, body = env.do(t, http.MethodPost, base+"/delivery/nope/delivered", map[string]string{"recipientName": "A"})
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decode[errorBody](t, body).Code)

	res, _ = env.do(t, http.MethodPost, base+"/delivery/"+id+"/delivered", map[string]string{"recipientName": "A"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = env.do(t, http.MethodPost, base+"/delivery/"+id+"/pending", map[string]string{"reason": "late"})
	require.Equal(t, http.StatusConflict, res.StatusCode)

	res, _ = env.do(t, http.MethodPost, base+"/delivery/"+id+"/pending", map[string]any{"reason": "late", "extra": 1})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUnknownRoutes(t *testing.T) {
	env := newTestEnv(t)

	res, body := env.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decode[errorBody](t, body).Code)

	res, body = env.do(t, http.MethodDelete, "/api/packages", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, body).Code)

	res, _ = env.do(t, http.MethodPut, "/api/approval-requests/a1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, _ = env.do(t, http.MethodGet, "/api/workflow/tab-1/input", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, _ = env.do(t, http.MethodPost, "/api/workflow/tab-1/nope", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestWorkflowRequiresOpenSession(t *testing.T) {
	env := newTestEnv(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("kurir123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, env.store.CreateUser(context.Background(), &domain.User{
		ID: "u1", UserID: "PISTEST2025", Email: "kurir@courier.id", PasswordHash: string(hash),
		Name: "Kurir", Role: domain.RoleKurir, Status: domain.UserStatusActive,
	}))

	res, body := env.do(t, http.MethodPost, "/api/workflow/never-opened/input", map[string]int{"totalPackages": 1, "codPackages": 1})
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decode[errorBody](t, body).Code)

	res, body = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "kurir@courier.id", "password": "kurir123"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	sid := decode[struct {
		Session session.Tab `json:"session"`
	}](t, body).Session.SessionID
	require.NotEmpty(t, sid)

	base := "/api/workflow/" + sid
	res, body = env.do(t, http.MethodPost, base+"/input", map[string]int{"totalPackages": 1, "codPackages": 1})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.Equal(t, "scan", decode[stateBody](t, body).Step)

	res, _ = env.do(t, http.MethodPost, "/api/auth/logout", map[string]string{"session_id": sid})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode, "a closed session does not come back")
}

func TestLoginAndSession(t *testing.T) {
	env := newTestEnv(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("kurir123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, env.store.CreateUser(context.Background(), &domain.User{
		ID: "u1", UserID: "PISTEST2025", Email: "kurir@courier.id", PasswordHash: string(hash),
		Name: "Kurir", Role: domain.RoleKurir, Status: domain.UserStatusActive,
	}))

	res, body := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "kurir@courier.id", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decode[errorBody](t, body).Code)

	res, body = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "kurir@courier.id", "password": "kurir123"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.NotContains(t, string(body), string(hash))
	login := decode[struct {
		Session session.Tab `json:"session"`
	}](t, body)
	require.NotEmpty(t, login.Session.SessionID)

	res, body = env.do(t, http.MethodGet, "/api/auth/session/"+login.Session.SessionID, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, login.Session.TabID, decode[session.Tab](t, body).TabID)

	res, _ = env.do(t, http.MethodPost, "/api/auth/logout", map[string]string{"session_id": login.Session.SessionID})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = env.do(t, http.MethodGet, "/api/auth/session/"+login.Session.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUploadDeliveryPhotoServesFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.CreateShipment(context.Background(), &domain.Shipment{
		ID: "pkg-1", ResiNumber: "RESI1", KurirID: "PISTEST2025", Status: domain.ShipmentPickup,
	}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("packageId", "pkg-1"))
	require.NoError(t, mw.WriteField("userId", "PISTEST2025"))
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="proof.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	res, err := http.Post(env.srv.URL+"/api/upload/delivery-photo", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var up struct {
		Success  bool   `json:"success"`
		PhotoURL string `json:"photoUrl"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&up))
	assert.True(t, up.Success)
	require.True(t, strings.HasPrefix(up.PhotoURL, "/uploads/PISTEST2025/delivery-pkg-1-"), up.PhotoURL)

	got, body := env.do(t, http.MethodGet, up.PhotoURL, nil)
	require.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "png-bytes", string(body))

	sh, err := env.store.GetShipment(context.Background(), "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentDelivered, sh.Status)
	assert.Equal(t, up.PhotoURL, sh.FotoBuktiTerkirim)
}

func TestUploadRejectsMissingPhoto(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("packageId", "pkg-1"))
	require.NoError(t, mw.Close())

	res, err := http.Post(env.srv.URL+"/api/upload/delivery-photo", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := newRateLimiter(Limit{Requests: 2, Window: time.Minute}, nil)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"), "quota is per client")

	now = now.Add(30 * time.Second)
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	now = now.Add(2 * time.Minute)
	rl.allow("10.0.0.3")
	rl.mu.Lock()
	_, kept := rl.clients["10.0.0.2"]
	rl.mu.Unlock()
	assert.False(t, kept, "idle clients are swept")
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := newRateLimiter(Limit{Requests: 1, Window: time.Minute}, nil)
	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "203.0.113.9:40000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decode[errorBody](t, rec.Body.Bytes()).Code)

	// A spoofed X-Forwarded-For from an untrusted peer shares its quota.
	req.Header.Set("X-Forwarded-For", "198.51.100.77")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	trusted := proxyTrust{netip.MustParsePrefix("10.0.0.0/8")}
	cases := []struct {
		name    string
		proxies proxyTrust
		remote  string
		fwd     string
		want    string
	}{
		{"no header", trusted, "192.0.2.7:51234", "", "192.0.2.7"},
		{"untrusted peer ignores header", trusted, "192.0.2.7:51234", "198.51.100.3", "192.0.2.7"},
		{"nobody trusted", nil, "10.0.0.5:80", "198.51.100.3", "10.0.0.5"},
		{"trusted peer", trusted, "10.0.0.5:80", " 198.51.100.3 ", "198.51.100.3"},
		{"spoofed left hop", trusted, "10.0.0.5:80", "1.2.3.4, 198.51.100.3, 10.0.0.9", "198.51.100.3"},
		{"all hops trusted", trusted, "10.0.0.5:80", "10.0.0.8", "10.0.0.8"},
		{"no port", trusted, "192.0.2.7", "", "192.0.2.7"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.fwd != "" {
			req.Header.Set("X-Forwarded-For", tc.fwd)
		}
		assert.Equal(t, tc.want, tc.proxies.clientIP(req), tc.name)
	}
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	res, _ := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", res.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", res.Header.Get("X-Frame-Options"))

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "abc-123", res.Header.Get("X-Request-ID"))
}

func TestMetricsUseRouteTemplates(t *testing.T) {
	env := newTestEnv(t)

	base := env.openSession(t)
	env.do(t, http.MethodGet, base, nil)
	res, body := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `courier_http_requests_total{method="GET",route="/api/workflow/{sessionId}",status="200"} 1`)
	assert.NotContains(t, string(body), strings.TrimPrefix(base, "/api/workflow/"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode[errorBody](t, rec.Body.Bytes()).Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

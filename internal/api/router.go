package api

import (
	"courier-service/internal/api/handlers"
	"courier-service/internal/apperr"
	"courier-service/internal/platform/metrics"
	"courier-service/internal/services"
	"courier-service/internal/workflow"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Services  *services.Service
	Workflows *workflow.Manager
	Realtime  http.Handler
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	// UploadsDir, when set, is served read-only under UploadsPrefix.
	UploadsDir    string
	UploadsPrefix string

	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []netip.Prefix
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAppError(w, apperr.New(apperr.CodeNotFound, "route not found", http.StatusNotFound))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAppError(w, apperr.New(apperr.CodeValidationError, "method not allowed", http.StatusMethodNotAllowed))
	})
	if d.Metrics != nil {
		r.Use(metricsMiddleware(d.Metrics))
		r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	if d.Realtime != nil {
		r.Handle("/ws-api", d.Realtime)
	}
	if d.UploadsDir != "" {
		prefix := "/" + strings.Trim(d.UploadsPrefix, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(d.UploadsDir)))).Methods(http.MethodGet)
	}

	// API routes sit on the root router with full paths. Subrouters copy
	// the parent's prefix matcher into each child route, which clears a
	// method mismatch seen earlier and turns every 405 into a 404.
	proxies := proxyTrust(d.TrustedProxies)
	apiRL := newRateLimiter(APILimit, proxies)
	authRL := newRateLimiter(AuthLimit, proxies)
	uploadRL := newRateLimiter(UploadLimit, proxies)
	handle := func(path string, h http.HandlerFunc, method string, extra ...func(http.Handler) http.Handler) {
		var hh http.Handler = h
		for _, mw := range extra {
			hh = mw(hh)
		}
		r.Handle("/api"+path, apiRL.middleware(hh)).Methods(method)
	}

	auth := &handlers.AuthHandler{Svc: d.Services}
	handle("/auth/login", auth.Login, http.MethodPost, authRL.middleware)
	handle("/auth/switch", auth.Switch, http.MethodPost, authRL.middleware)
	handle("/auth/logout", auth.Logout, http.MethodPost)
	handle("/auth/session/{sessionId}", auth.Session, http.MethodGet)

	users := &handlers.UserHandler{Svc: d.Services}
	handle("/users", users.List, http.MethodGet)
	handle("/users", users.Create, http.MethodPost)
	handle("/users/{userId}", users.Get, http.MethodGet)
	handle("/users/{id}", users.Update, http.MethodPatch)

	pkgs := &handlers.PackageHandler{Svc: d.Services}
	handle("/packages", pkgs.List, http.MethodGet)
	handle("/packages", pkgs.Create, http.MethodPost)
	handle("/packages/{id}", pkgs.Update, http.MethodPatch)

	acts := &handlers.ActivityHandler{Svc: d.Services}
	handle("/kurir-activities", acts.List, http.MethodGet)
	handle("/kurir-activities", acts.Create, http.MethodPost)

	att := &handlers.AttendanceHandler{Svc: d.Services}
	handle("/attendance", att.List, http.MethodGet)
	handle("/attendance", att.Create, http.MethodPost)

	appr := &handlers.ApprovalHandler{Svc: d.Services}
	handle("/approval-requests", appr.List, http.MethodGet)
	handle("/approval-requests", appr.Create, http.MethodPost)
	handle("/approval-requests/pending", appr.Pending, http.MethodGet)
	handle("/approval-requests/{id}", appr.Decide, http.MethodPatch)

	up := &handlers.UploadHandler{Svc: d.Services}
	handle("/upload/delivery-photo", up.DeliveryPhoto, http.MethodPost, uploadRL.middleware)
	handle("/delete-file", up.DeleteFile, http.MethodPost)

	if d.Workflows != nil {
		wf := &handlers.WorkflowHandler{Workflows: d.Workflows, Sessions: d.Services.Sessions}
		const base = "/workflow/{sessionId}"
		handle(base, wf.Get, http.MethodGet)
		handle(base+"/input", wf.SaveInput, http.MethodPost)
		handle(base+"/scan", wf.Scan, http.MethodPost)
		handle(base+"/scan/complete", wf.CompleteScan, http.MethodPost)
		handle(base+"/scan/{id}", wf.RemoveScan, http.MethodDelete)
		handle(base+"/delivery/{id}/delivered", wf.MarkDelivered, http.MethodPost)
		handle(base+"/delivery/{id}/pending", wf.MarkPending, http.MethodPost)
		handle(base+"/pending/return", wf.ReturnPending, http.MethodPost)
		handle(base+"/performance", wf.Performance, http.MethodGet)
		handle(base+"/reset", wf.Reset, http.MethodPost)
	}

	var h http.Handler = r
	h = loggingMiddleware(logger)(h)
	h = securityHeadersMiddleware(h)
	h = recoveryMiddleware(logger)(h)
	h = requestIDMiddleware(h)
	return h
}

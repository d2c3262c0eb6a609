package main

import (
	"context"
	"courier-service/internal/api"
	"courier-service/internal/config"
	"courier-service/internal/platform/metrics"
	"courier-service/internal/platform/obs"
	"courier-service/internal/realtime"
	"courier-service/internal/services"
	"courier-service/internal/session"
	"courier-service/internal/workflow"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// main is the application composition root.
// It wires concrete adapters behind ports and runs the HTTP server until
// SIGINT or SIGTERM.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	dotenv := config.LoadDotenv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := obs.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if !dotenv {
		logger.Info("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	deps, err := wire(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	hub := realtime.NewHub(logger.Named("realtime"))
	hub.OnDrop = m.RecordRealtimeDrop

	registry := session.NewRegistry()
	manager := workflow.NewManager(deps.mirror, logger.Named("workflow"))
	manager.Subscribe(m.ObserveWorkflow)
	registry.Subscribe(func(c session.Change) {
		switch c.Kind {
		case session.Closed:
			manager.Evict(c.Tab.SessionID)
		case session.UserSwitched:
			logger.Info("session user switched",
				zap.String("session_id", c.Tab.SessionID),
				zap.String("user_id", c.Tab.User.UserID),
			)
		}
	})

	m.RegisterGauge("realtime", "connections", "Open /ws-api connections", func() float64 { return float64(hub.Len()) })
	m.RegisterGauge("workflow", "sessions_loaded", "Workflow sessions held in memory", func() float64 { return float64(manager.Len()) })
	m.RegisterGauge("session", "tabs_open", "Signed-in tab sessions", func() float64 { return float64(registry.Len()) })

	svc := services.New(deps.repos, hub, deps.photos, registry)

	router := api.NewRouter(api.Deps{
		Services:       svc,
		Workflows:      manager,
		Realtime:       hub,
		Metrics:        m,
		Logger:         logger.Named("http"),
		UploadsDir:     deps.uploadsDir,
		UploadsPrefix:  cfg.PhotoBaseURL,
		TrustedProxies: cfg.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage),
			zap.String("mirror", cfg.MirrorBackend),
			zap.String("photo_store", cfg.PhotoStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		// Hijacked WebSocket connections are not closed by Shutdown.
		hub.Close()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})

	return g.Wait()
}

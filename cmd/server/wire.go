package main

import (
	"context"
	"courier-service/internal/adapters/mirror"
	"courier-service/internal/adapters/photostore"
	"courier-service/internal/adapters/repositories"
	"courier-service/internal/config"
	"courier-service/internal/platform/db"
	"courier-service/internal/platform/metrics"
	"courier-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const redisKeyPrefix = "courier:"

type dependencies struct {
	repos      ports.Repositories
	mirror     ports.WorkflowMirror
	photos     ports.PhotoStore
	uploadsDir string
	closers    []func() error
}

func (d *dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

// wire opens the storage, mirror and photo backends selected by cfg.
func wire(ctx context.Context, cfg config.Config, m *metrics.Metrics, logger *zap.Logger) (_ *dependencies, err error) {
	d := &dependencies{}
	defer func() {
		if err != nil {
			d.close()
		}
	}()

	var pg *sql.DB
	postgres := func() (*sql.DB, error) {
		if pg != nil {
			return pg, nil
		}
		conn, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, err
		}
		pg = conn
		d.closers = append(d.closers, conn.Close)
		return pg, nil
	}

	switch cfg.Storage {
	case "postgres":
		conn, err := postgres()
		if err != nil {
			return nil, err
		}
		d.repos = repositories.NewPostgresRepositories(conn)
	default:
		d.repos = repositories.NewMemoryStore().Repositories()
	}

	// Memory storage starts empty; development databases get the demo accounts.
	if cfg.Storage == "memory" || cfg.AppEnv == "development" {
		res, err := repositories.SeedFromJSON(ctx, d.repos, cfg.SeedPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("no seed file, starting empty", zap.String("path", cfg.SeedPath))
		case err != nil:
			return nil, err
		default:
			logger.Info("seeded records", zap.Int("users", res.Users), zap.Int("shipments", res.Shipments))
		}
	}

	switch cfg.MirrorBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		d.closers = append(d.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		d.mirror = mirror.NewRedisMirror(client, redisKeyPrefix, 0)
	case "postgres":
		conn, err := postgres()
		if err != nil {
			return nil, err
		}
		d.mirror = mirror.NewSQLMirror(conn)
	case "sqlite":
		conn, err := db.OpenSqlite(ctx, cfg.SqlitePath)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, conn.Close)
		if err := mirror.InitSqliteSchema(ctx, conn); err != nil {
			return nil, err
		}
		d.mirror = mirror.NewSqliteMirror(conn)
	default:
		d.mirror = mirror.NewMemoryMirror()
	}

	switch cfg.PhotoStore {
	case "http":
		store, err := photostore.NewHTTPStore(cfg.PhotoAPIURL, cfg.PhotoAPIKey, cfg.PhotoBucket, logger.Named("photostore"),
			photostore.OnBreakerChange(func(s gobreaker.State) {
				m.SetCircuitBreakerState("photostore", int(s))
			}),
		)
		if err != nil {
			return nil, err
		}
		d.photos = store
	default:
		d.photos = photostore.NewLocalStore(cfg.PhotoDir, cfg.PhotoBaseURL)
		d.uploadsDir = cfg.PhotoDir
	}

	return d, nil
}

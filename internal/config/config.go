package config

import (
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the process settings read from the environment.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	// Storage selects the record store: "postgres" or "memory".
	Storage     string
	DatabaseURL string
	SeedPath    string

	// MirrorBackend selects the workflow mirror: memory, redis, postgres or sqlite.
	MirrorBackend string
	RedisAddr     string
	SqlitePath    string

	// PhotoStore selects where uploaded photos go: "local" or "http".
	PhotoStore   string
	PhotoDir     string
	PhotoBaseURL string
	PhotoAPIURL  string
	PhotoAPIKey  string
	PhotoBucket  string

	// TrustedProxies are the peers allowed to set X-Forwarded-For,
	// from TRUSTED_PROXIES as comma-separated IPs or CIDRs.
	TrustedProxies []netip.Prefix
}

// LoadDotenv reads .env into the environment if the file exists.
// It reports whether a file was loaded.
func LoadDotenv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load builds a Config from the environment and checks that the chosen
// backends have what they need.
func Load() (Config, error) {
	cfg := Config{
		Port:          Get("PORT", "8080"),
		AppEnv:        Get("APP_ENV", "production"),
		LogLevel:      Get("LOG_LEVEL", "info"),
		Storage:       Get("STORAGE", "postgres"),
		DatabaseURL:   Get("DATABASE_URL", ""),
		SeedPath:      Get("SEED_PATH", "data/seeds/seed.json"),
		MirrorBackend: Get("MIRROR_BACKEND", "memory"),
		RedisAddr:     Get("REDIS_ADDR", "localhost:6379"),
		SqlitePath:    Get("SQLITE_PATH", "data/workflow.db"),
		PhotoStore:    Get("PHOTO_STORE", "local"),
		PhotoDir:      Get("PHOTO_DIR", "uploads"),
		PhotoBaseURL:  Get("PHOTO_BASE_URL", "/uploads"),
		PhotoAPIURL:   Get("PHOTO_API_URL", ""),
		PhotoAPIKey:   Get("PHOTO_API_KEY", ""),
		PhotoBucket:   Get("PHOTO_BUCKET", "delivery-photos"),
	}

	proxies, err := parseProxies(Get("TRUSTED_PROXIES", ""))
	if err != nil {
		return cfg, fmt.Errorf("load config: TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	switch cfg.Storage {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("load config: DATABASE_URL is required for postgres storage")
		}
	default:
		return cfg, fmt.Errorf("load config: unknown STORAGE %q", cfg.Storage)
	}

	switch cfg.MirrorBackend {
	case "memory", "redis", "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("load config: DATABASE_URL is required for the postgres mirror")
		}
	default:
		return cfg, fmt.Errorf("load config: unknown MIRROR_BACKEND %q", cfg.MirrorBackend)
	}

	switch cfg.PhotoStore {
	case "local":
	case "http":
		if cfg.PhotoAPIURL == "" {
			return cfg, fmt.Errorf("load config: PHOTO_API_URL is required for the http photo store")
		}
	default:
		return cfg, fmt.Errorf("load config: unknown PHOTO_STORE %q", cfg.PhotoStore)
	}

	return cfg, nil
}

func parseProxies(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend BackendConfig
	Session SessionConfig
	Store   string `env:"STORE, default=redis"`

	Mongo MongoConfig
	Redis RedisConfig
}

// BackendConfig points at the media API the portal fronts.
type BackendConfig struct {
	URL            string        `env:"BACKEND_URL,     default=http://localhost:3000"`
	Timeout        time.Duration `env:"BACKEND_TIMEOUT, default=10s"`
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT, default=5s"`
}

type SessionConfig struct {
	// Secret signs the visitor cookie. Required outside development.
	Secret          string        `env:"SESSION_SECRET"`
	TTL             time.Duration `env:"SESSION_TTL,              default=720h"`
	RevalidateAfter time.Duration `env:"SESSION_REVALIDATE_AFTER, default=5m"`
	SecureCookie    bool          `env:"SESSION_SECURE_COOKIE,    default=false"`
	QueryCacheTTL   time.Duration `env:"QUERY_CACHE_TTL,          default=1m"`
}

// MongoConfig holds the activity log connection. An empty URI keeps the log
// in memory.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=mediavault_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// devSecret is only accepted when Env is development.
const devSecret = "mediavault-portal-dev-secret"

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the portal runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreRedis, StoreMemory, c.Store)
	}
	if c.Backend.URL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if c.Backend.Timeout <= 0 || c.Backend.RefreshTimeout <= 0 {
		return errors.New("BACKEND_TIMEOUT and REFRESH_TIMEOUT must be positive")
	}
	if c.Session.Secret == "" {
		if !c.IsDevelopment() {
			return errors.New("SESSION_SECRET is required outside development")
		}
		c.Session.Secret = devSecret
	}
	return nil
}

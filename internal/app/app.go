// Package app wires configuration, stores, the backend client and the
// services into a runnable portal.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mediavault/portal/internal/api"
	"github.com/mediavault/portal/internal/api/handler"
	"github.com/mediavault/portal/internal/core/ports"
	"github.com/mediavault/portal/internal/core/service"
	"github.com/mediavault/portal/internal/infrastructure/backend"
	"github.com/mediavault/portal/internal/infrastructure/db/memory"
	mongostore "github.com/mediavault/portal/internal/infrastructure/db/mongo"
	redisstore "github.com/mediavault/portal/internal/infrastructure/db/redis"
	"github.com/mediavault/portal/internal/pkg/config"
)

const activityLogSize = 1024

// App is the assembled portal server.
type App struct {
	Echo *echo.Echo

	closers []func(context.Context) error
	log     zerolog.Logger
}

// stores groups the per-visitor persistence the portal needs.
type stores struct {
	visitors ports.VisitorStore
	lock     ports.BootstrapLock
	cache    ports.QueryCache
	notifier ports.Notifier
	activity ports.ActivityRepository
}

// New connects every dependency cfg names and builds the router. On error
// anything already opened is closed again.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{log: log}
	health := map[string]handler.Pinger{}

	client, err := backend.New(backend.Config{
		BaseURL:        cfg.Backend.URL,
		Timeout:        cfg.Backend.Timeout,
		RefreshTimeout: cfg.Backend.RefreshTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	health["backend"] = client

	st, err := a.openStores(ctx, cfg, health)
	if err != nil {
		_ = a.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	sessions := service.NewSessionService(client, st.cache, st.notifier, st.activity, log)
	media := service.NewMediaService(client, st.cache, st.notifier, st.activity, log)

	a.Echo = api.NewRouter(api.Deps{
		Sessions:        sessions,
		Media:           media,
		Visitors:        st.visitors,
		Lock:            st.lock,
		Notifier:        st.notifier,
		Health:          health,
		SessionSecret:   cfg.Session.Secret,
		SessionTTL:      cfg.Session.TTL,
		SecureCookie:    cfg.Session.SecureCookie,
		RevalidateAfter: cfg.Session.RevalidateAfter,
		Log:             log,
	})
	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg *config.Config, health map[string]handler.Pinger) (stores, error) {
	var st stores

	switch cfg.Store {
	case config.StoreRedis:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return st, err
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		health["redis"] = redisstore.NewPinger(rdb)

		st.visitors = redisstore.NewVisitorStore(rdb)
		st.lock = redisstore.NewBootstrapLock(rdb)
		st.cache = redisstore.NewQueryCache(rdb, cfg.Session.QueryCacheTTL)
		st.notifier = redisstore.NewNotifier(rdb, a.log)
		a.log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis stores")
	default:
		st.visitors = memory.NewVisitorStore()
		st.lock = memory.NewBootstrapLock()
		st.cache = memory.NewQueryCache(cfg.Session.QueryCacheTTL)
		st.notifier = memory.NewNotifier()
		a.log.Warn().Msg("using in-memory stores; sessions do not survive restarts")
	}

	if cfg.Mongo.URI == "" {
		st.activity = memory.NewActivityLog(activityLogSize)
		return st, nil
	}

	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return st, err
	}
	a.closers = append(a.closers, client.Disconnect)
	health["mongo"] = mongostore.NewPinger(client)

	repo := mongostore.NewActivityRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		a.log.Warn().Err(err).Msg("failed to ensure activity indexes")
	}
	st.activity = repo
	return st, nil
}

// Close releases every connection New opened, newest first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close: %w", errors.Join(errs...))
	}
	return nil
}

// Local is the single-visitor wiring the CLI runs on: the real backend
// client with in-memory stores.
type Local struct {
	Sessions *service.SessionService
	Notifier *memory.Notifier
	Activity *memory.ActivityLog
}

// NewLocal builds the CLI wiring against backendURL.
func NewLocal(cfg *config.Config, backendURL string, log zerolog.Logger) (*Local, error) {
	client, err := backend.New(backend.Config{
		BaseURL:        backendURL,
		Timeout:        cfg.Backend.Timeout,
		RefreshTimeout: cfg.Backend.RefreshTimeout,
	}, log)
	if err != nil {
		return nil, err
	}

	l := &Local{
		Notifier: memory.NewNotifier(),
		Activity: memory.NewActivityLog(64),
	}
	l.Sessions = service.NewSessionService(client, memory.NewQueryCache(cfg.Session.QueryCacheTTL), l.Notifier, l.Activity, log)
	return l, nil
}

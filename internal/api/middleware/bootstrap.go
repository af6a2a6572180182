package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mediavault/portal/internal/core/ports"
	"github.com/mediavault/portal/internal/core/service"
	"github.com/mediavault/portal/internal/metrics"
)

// SessionBootstrapper runs a bootstrap cycle against a session state.
type SessionBootstrapper interface {
	Bootstrap(ctx context.Context, st *service.SessionState) service.Outcome
}

type BootstrapConfig struct {
	Skipper         echomiddleware.Skipper
	Sessions        SessionBootstrapper
	Lock            ports.BootstrapLock
	RevalidateAfter time.Duration
	LockTTL         time.Duration
	Log             zerolog.Logger
}

const defaultLockTTL = 15 * time.Second

// Bootstrap runs a session bootstrap cycle when the visitor has never
// settled one or the last one is older than RevalidateAfter. Only one
// request per visitor runs the cycle at a time; the others proceed seeing a
// loading session. A rate-limited cycle redirects to the rate-limit page.
func Bootstrap(cfg BootstrapConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := StateOf(c)
			if cfg.Skipper(c) || st == nil || !st.NeedsBootstrap(time.Now(), cfg.RevalidateAfter) {
				return next(c)
			}

			ctx := c.Request().Context()
			release, ok, err := cfg.Lock.Acquire(ctx, st.ID(), cfg.LockTTL)
			switch {
			case err != nil:
				cfg.Log.Warn().Err(err).Str("visitor", st.ID()).Msg("bootstrap lock unavailable, running unlocked")
			case !ok:
				metrics.BootstrapCoalescedTotal.Inc()
				c.Set(ctxPending, true)
				return next(c)
			default:
				defer func() {
					if err := release(context.WithoutCancel(ctx)); err != nil {
						cfg.Log.Warn().Err(err).Str("visitor", st.ID()).Msg("bootstrap lock release failed")
					}
				}()
			}

			out := cfg.Sessions.Bootstrap(ctx, st)
			if err := ctx.Err(); err != nil {
				// The client went away; drop whatever the cycle produced.
				st.Detach()
				return err
			}
			if out.Redirect == service.PathRateLimit {
				return Redirect(c, service.PathRateLimit)
			}
			return next(c)
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/ports"
	"github.com/mediavault/portal/internal/metrics"
)

// errNoUser is returned when get-user succeeds but does not carry exactly
// one record; the cycle treats it like any other fetch failure.
var errNoUser = errors.New("get-user returned no single user record")

// Observer receives every state transition of a bootstrap cycle.
type Observer func(from, to domain.BootstrapState)

// BootstrapResult is the terminal outcome of one cycle.
type BootstrapResult struct {
	State            domain.BootstrapState
	User             *domain.UserRecord
	RefreshAttempted bool
	// Err is the last failure seen, nil when the cycle authenticated.
	Err error
}

// Bootstrapper decides whether a set of credentials holds a valid session:
//
//	INIT → FETCHING ─ok──────────────────────────────→ AUTHENTICATED
//	          │ └─429──────────────────────────────────→ RATE_LIMITED
//	          └─fail→ REFRESHING ─ok→ FETCHING_RETRY ─ok→ AUTHENTICATED
//	                      │                  ├─429──────→ RATE_LIMITED
//	                      └─fail──────┐      └─fail─────→ UNAUTHENTICATED
//	                                  └─────────────────→ UNAUTHENTICATED
//
// The refresh call is made at most once per Run.
type Bootstrapper struct {
	backend  ports.SessionBackend
	log      zerolog.Logger
	observer Observer
}

// NewBootstrapper returns a Bootstrapper backed by the given backend.
func NewBootstrapper(backend ports.SessionBackend, log zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{backend: backend, log: log}
}

// WithObserver returns a copy of b that reports transitions to o.
func (b *Bootstrapper) WithObserver(o Observer) *Bootstrapper {
	cp := *b
	cp.observer = o
	return &cp
}

// Run executes one bootstrap cycle. Failures never escape as errors; they
// resolve into the result's terminal state.
func (b *Bootstrapper) Run(ctx context.Context, creds domain.Credentials) BootstrapResult {
	metrics.BootstrapInFlight.Inc()
	defer metrics.BootstrapInFlight.Dec()

	r := &bootstrapRun{b: b, creds: creds, state: domain.StateInit}
	r.to(domain.StateFetching)
	for !r.state.Terminal() {
		r.step(ctx)
	}

	metrics.BootstrapTotal.WithLabelValues(string(r.state)).Inc()
	ev := b.log.Debug()
	if r.state == domain.StateRateLimited {
		ev = b.log.Warn()
	}
	ev.Str("state", string(r.state)).
		Bool("refreshed", r.refreshed).
		AnErr("cause", r.err).
		Msg("session bootstrap settled")

	return BootstrapResult{
		State:            r.state,
		User:             r.user,
		RefreshAttempted: r.refreshed,
		Err:              r.err,
	}
}

// bootstrapRun is the mutable state of a single cycle.
type bootstrapRun struct {
	b         *Bootstrapper
	creds     domain.Credentials
	state     domain.BootstrapState
	refreshed bool
	user      *domain.UserRecord
	err       error
}

func (r *bootstrapRun) to(next domain.BootstrapState) {
	prev := r.state
	r.state = next
	if r.b.observer != nil {
		r.b.observer(prev, next)
	}
}

func (r *bootstrapRun) step(ctx context.Context) {
	switch r.state {
	case domain.StateFetching, domain.StateFetchingRetry:
		user, err := r.fetch(ctx)
		switch {
		case err == nil:
			r.user, r.err = user, nil
			r.to(domain.StateAuthenticated)
		case errors.Is(err, domain.ErrRateLimited):
			r.err = err
			r.to(domain.StateRateLimited)
		case !r.refreshed:
			r.err = err
			r.to(domain.StateRefreshing)
		default:
			r.err = err
			r.to(domain.StateUnauthenticated)
		}

	case domain.StateRefreshing:
		r.refreshed = true
		err := r.b.backend.RefreshToken(ctx, r.creds)
		switch {
		case err == nil:
			metrics.TokenRefreshTotal.WithLabelValues("ok").Inc()
			r.to(domain.StateFetchingRetry)
		case errors.Is(err, domain.ErrRateLimited):
			metrics.TokenRefreshTotal.WithLabelValues("rate_limited").Inc()
			r.err = err
			r.to(domain.StateRateLimited)
		default:
			metrics.TokenRefreshTotal.WithLabelValues("failed").Inc()
			r.err = fmt.Errorf("refresh token: %w", err)
			r.to(domain.StateUnauthenticated)
		}

	default:
		// Unreachable from Run; settle rather than spin.
		r.err = fmt.Errorf("bootstrap: unexpected state %q", r.state)
		r.to(domain.StateUnauthenticated)
	}
}

func (r *bootstrapRun) fetch(ctx context.Context) (*domain.UserRecord, error) {
	users, err := r.b.backend.GetUser(ctx, r.creds)
	if err != nil {
		return nil, err
	}
	if len(users) != 1 {
		return nil, fmt.Errorf("%w (got %d)", errNoUser, len(users))
	}
	u := users[0]
	return &u, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/ports"
	"github.com/mediavault/portal/internal/metrics"
)

const (
	minPasswordLength = 8
	activityLimit     = 50
)

// Outcome is what a session operation leaves behind: the terminal
// bootstrap state (when one ran), the visitor's session afterwards and where
// the visitor should be sent next, if anywhere.
type Outcome struct {
	State    domain.BootstrapState `json:"state,omitempty"`
	Session  domain.Session        `json:"session"`
	Redirect string                `json:"redirect,omitempty"`
}

// SessionService is the only writer of visitor session state. It runs the
// bootstrap cycle and the login, register and logout actions.
type SessionService struct {
	boot    *Bootstrapper
	backend ports.AccountBackend
	cache   ports.QueryCache
	actions actionRecorder
	log     zerolog.Logger
	now     func() time.Time
}

// NewSessionService wires a SessionService.
func NewSessionService(
	backend ports.AccountBackend,
	cache ports.QueryCache,
	notifier ports.Notifier,
	activity ports.ActivityRepository,
	log zerolog.Logger,
) *SessionService {
	log = log.With().Str("component", "session").Logger()
	return &SessionService{
		boot:    NewBootstrapper(backend, log),
		backend: backend,
		cache:   cache,
		actions: actionRecorder{notifier: notifier, activity: activity, log: log, now: time.Now},
		log:     log,
		now:     time.Now,
	}
}

// WithObserver makes every bootstrap cycle report its transitions to o.
func (s *SessionService) WithObserver(o Observer) *SessionService {
	cp := *s
	cp.boot = s.boot.WithObserver(o)
	return &cp
}

// Bootstrap runs one bootstrap cycle for st.
//
// An unauthenticated result is routine and raises no notification; the
// route guard turns it into a redirect where needed. A rate-limited result
// leaves the session exactly as it was, notifies, and redirects to the
// rate-limit page.
func (s *SessionService) Bootstrap(ctx context.Context, st *SessionState) Outcome {
	cycle, prev := st.begin()
	res := s.boot.Run(ctx, st.credentials())

	out := Outcome{State: res.State}
	switch res.State {
	case domain.StateAuthenticated:
		st.settle(cycle, domain.Authenticated(res.User), s.now().UTC())
	case domain.StateRateLimited:
		if st.restore(cycle, prev) {
			metrics.RateLimitedTotal.Inc()
			s.actions.notify(ctx, st, domain.NotifyError, rateLimitedMessage)
		}
		out.Redirect = PathRateLimit
	default:
		st.settle(cycle, domain.LoggedOut(), s.now().UTC())
	}
	out.Session = st.Snapshot()
	return out
}

// Login signs the visitor in, drops cached query results and re-runs the
// bootstrap cycle so the session reflects the new user.
func (s *SessionService) Login(ctx context.Context, st *SessionState, email, password string) (Outcome, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		err := fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
		return s.failed(ctx, st, domain.ActionLogin, err), err
	}

	if err := s.backend.Login(ctx, st.credentials(), email, password); err != nil {
		return s.failed(ctx, st, domain.ActionLogin, err), err
	}
	return s.signedIn(ctx, st, domain.ActionLogin), nil
}

// Register creates an account and continues like Login.
func (s *SessionService) Register(ctx context.Context, st *SessionState, username, email, password string) (Outcome, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		err := fmt.Errorf("%w: username, email and password are required", domain.ErrInvalidInput)
		return s.failed(ctx, st, domain.ActionRegister, err), err
	}

	if err := s.backend.Register(ctx, st.credentials(), username, email, password); err != nil {
		return s.failed(ctx, st, domain.ActionRegister, err), err
	}
	return s.signedIn(ctx, st, domain.ActionRegister), nil
}

// Logout invalidates the session on the backend and locally. Local state is
// reset whatever the backend answers so the visitor is never left half
// signed in.
func (s *SessionService) Logout(ctx context.Context, st *SessionState) Outcome {
	status, err := s.backend.Logout(ctx, st.credentials())

	// Record against the user before the reset drops them.
	if err != nil {
		s.actions.failed(ctx, st, domain.ActionLogout, err)
	} else {
		if status == "" {
			status = "success"
		}
		s.actions.succeeded(ctx, st, domain.ActionLogout, status)
	}

	s.clearCache(ctx, st)
	st.reset(s.now().UTC())

	return Outcome{
		State:    domain.StateUnauthenticated,
		Session:  st.Snapshot(),
		Redirect: PathLogin,
	}
}

// UpdatePassword changes the signed-in user's password.
func (s *SessionService) UpdatePassword(ctx context.Context, st *SessionState, current, next, confirm string) error {
	if !st.Snapshot().IsLoggedIn {
		return domain.ErrNotAuthenticated
	}

	var err error
	switch {
	case current == "":
		err = fmt.Errorf("%w: current password is required", domain.ErrInvalidInput)
	case next != confirm:
		err = fmt.Errorf("%w: new passwords do not match", domain.ErrInvalidInput)
	case len(next) < minPasswordLength:
		err = fmt.Errorf("%w: password must be at least %d characters long", domain.ErrInvalidInput, minPasswordLength)
	default:
		err = s.backend.UpdatePassword(ctx, st.credentials(), current, next)
	}
	if err != nil {
		s.actions.failed(ctx, st, domain.ActionUpdatePassword, err)
		return err
	}

	s.actions.succeeded(ctx, st, domain.ActionUpdatePassword, "Password updated successfully!")
	return nil
}

// SecretKey reveals the signed-in user's secret key after re-checking the
// password with the backend.
func (s *SessionService) SecretKey(ctx context.Context, st *SessionState, password string) (string, error) {
	if !st.Snapshot().IsLoggedIn {
		return "", domain.ErrNotAuthenticated
	}
	if password == "" {
		err := fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
		s.actions.failed(ctx, st, domain.ActionSecretKey, err)
		return "", err
	}

	key, err := s.backend.GetSecretKey(ctx, st.credentials(), password)
	if err != nil {
		s.actions.failed(ctx, st, domain.ActionSecretKey, err)
		return "", err
	}
	s.actions.succeeded(ctx, st, domain.ActionSecretKey, "success!")
	return key, nil
}

// Activity returns the signed-in visitor's most recent actions, newest first.
func (s *SessionService) Activity(ctx context.Context, st *SessionState) ([]domain.Activity, error) {
	if !st.Snapshot().IsLoggedIn {
		return nil, domain.ErrNotAuthenticated
	}
	entries, err := s.actions.activity.Recent(ctx, st.ID(), activityLimit)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return entries, nil
}

// Expire makes the next request re-run the bootstrap cycle. Used when an
// authenticated call comes back 401 mid-session.
func (s *SessionService) Expire(st *SessionState) {
	st.expire()
}

// signedIn follows a successful backend login or registration. The success
// toast is only raised when the follow-up cycle actually signed the visitor
// in; a rate-limited cycle has already notified on its own.
func (s *SessionService) signedIn(ctx context.Context, st *SessionState, action string) Outcome {
	s.clearCache(ctx, st)
	out := s.Bootstrap(ctx, st)
	msg := ""
	if out.State == domain.StateAuthenticated {
		msg = "success!"
	}
	s.actions.succeeded(ctx, st, action, msg)
	if out.Redirect == "" {
		out.Redirect = PathHome
	}
	return out
}

func (s *SessionService) failed(ctx context.Context, st *SessionState, action string, err error) Outcome {
	return Outcome{
		Session:  st.Snapshot(),
		Redirect: s.actions.failed(ctx, st, action, err),
	}
}

func (s *SessionService) clearCache(ctx context.Context, st *SessionState) {
	if err := s.cache.Clear(ctx, st.ID()); err != nil {
		s.log.Warn().Err(err).Str("visitor", st.ID()).Msg("failed to clear query cache")
	}
}

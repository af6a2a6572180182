package domain

import "time"

// Session is the client-side view of whether a visitor is signed in.
//
// Invariant: IsLoggedIn implies User != nil. Loading is true while a
// bootstrap cycle is running and suppresses any redirect decision.
type Session struct {
	User       *UserRecord `json:"user,omitempty"`
	IsLoggedIn bool        `json:"is_logged_in"`
	Loading    bool        `json:"loading"`
}

// NewSession returns the state every visitor starts in.
func NewSession() Session {
	return Session{Loading: true}
}

// LoggedOut returns the settled, unauthenticated state.
func LoggedOut() Session {
	return Session{}
}

// Authenticated returns the settled state for a signed-in user.
func Authenticated(u *UserRecord) Session {
	return Session{User: u, IsLoggedIn: true}
}

// Valid reports whether the session honours its invariant.
func (s Session) Valid() bool {
	return !s.IsLoggedIn || s.User != nil
}

// BootstrapState is a node of the session bootstrap state machine.
type BootstrapState string

const (
	StateInit            BootstrapState = "init"
	StateFetching        BootstrapState = "fetching"
	StateRefreshing      BootstrapState = "refreshing"
	StateFetchingRetry   BootstrapState = "fetching_retry"
	StateAuthenticated   BootstrapState = "authenticated"
	StateUnauthenticated BootstrapState = "unauthenticated"
	StateRateLimited     BootstrapState = "rate_limited"
)

// Terminal reports whether no further transition leaves s.
func (s BootstrapState) Terminal() bool {
	switch s {
	case StateAuthenticated, StateUnauthenticated, StateRateLimited:
		return true
	}
	return false
}

// Visitor is everything the portal keeps for one browser: the backend
// credentials it holds and the session derived from them.
type Visitor struct {
	ID             string      `json:"id"`
	Credentials    Credentials `json:"credentials"`
	Session        Session     `json:"session"`
	BootstrappedAt time.Time   `json:"bootstrapped_at,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewVisitor returns a visitor with no credentials and a loading session.
func NewVisitor(id string) *Visitor {
	return &Visitor{
		ID:          id,
		Credentials: Credentials{},
		Session:     NewSession(),
		UpdatedAt:   time.Now().UTC(),
	}
}

// NeedsBootstrap reports whether a new bootstrap cycle should run, either
// because none has settled yet or because the last one is older than maxAge.
// A zero maxAge disables revalidation.
func (v *Visitor) NeedsBootstrap(now time.Time, maxAge time.Duration) bool {
	if v.BootstrappedAt.IsZero() {
		return true
	}
	return maxAge > 0 && now.Sub(v.BootstrappedAt) > maxAge
}

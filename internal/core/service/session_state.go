package service

import (
	"sync"
	"time"

	"github.com/mediavault/portal/internal/core/domain"
)

// SessionState holds one visitor's session and credentials for the
// duration of their use (an HTTP request, a CLI command).
//
// Snapshot and Visitor are safe for concurrent readers. Writes go only
// through SessionService: a bootstrap cycle opens with begin and closes with
// settle or restore; login and logout call reset. A cycle that was
// superseded, or that finishes after Detach, is discarded without effect.
type SessionState struct {
	mu       sync.RWMutex
	visitor  domain.Visitor
	cycle    uint64
	detached bool
}

// NewSessionState wraps v. A nil v yields a fresh anonymous visitor.
func NewSessionState(v *domain.Visitor) *SessionState {
	if v == nil {
		v = domain.NewVisitor("")
	}
	cp := *v
	if cp.Credentials == nil {
		cp.Credentials = domain.Credentials{}
	}
	return &SessionState{visitor: cp}
}

// ID returns the visitor ID.
func (s *SessionState) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visitor.ID
}

// Snapshot returns a copy of the current session.
func (s *SessionState) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.visitor.Session)
}

// Visitor returns a copy of the full visitor record for persistence.
func (s *SessionState) Visitor() domain.Visitor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.visitor
	v.Credentials = s.visitor.Credentials.Clone()
	v.Session = copySession(s.visitor.Session)
	return v
}

// NeedsBootstrap reports whether a new cycle is due.
func (s *SessionState) NeedsBootstrap(now time.Time, maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visitor.NeedsBootstrap(now, maxAge)
}

// Detach stops the state from accepting further writes. Results of cycles
// still in flight are dropped.
func (s *SessionState) Detach() {
	s.mu.Lock()
	s.detached = true
	s.mu.Unlock()
}

// Detached reports whether Detach was called.
func (s *SessionState) Detached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detached
}

// credentials returns the live credential map. Only the writer path (one
// goroutine at a time) hands it to the backend.
func (s *SessionState) credentials() domain.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visitor.Credentials
}

// begin opens a bootstrap cycle: Loading turns true and stays true until the
// cycle settles. The prior session is returned so a rate-limited cycle can
// leave the state exactly as it found it.
func (s *SessionState) begin() (uint64, domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle++
	prev := copySession(s.visitor.Session)
	if !s.detached {
		s.visitor.Session.Loading = true
	}
	return s.cycle, prev
}

// settle closes cycle with a terminal session. It reports false when the
// result was discarded.
func (s *SessionState) settle(cycle uint64, next domain.Session, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached || cycle != s.cycle {
		return false
	}
	next.Loading = false
	s.visitor.Session = next
	s.visitor.BootstrappedAt = at
	s.visitor.UpdatedAt = at
	return true
}

// restore closes cycle by putting back the session it started from.
func (s *SessionState) restore(cycle uint64, prev domain.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached || cycle != s.cycle {
		return false
	}
	s.visitor.Session = prev
	return true
}

// reset logs the visitor out locally: credentials dropped, session settled
// as logged out, and any cycle in flight superseded.
func (s *SessionState) reset(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return
	}
	s.cycle++
	s.visitor.Credentials.Clear()
	s.visitor.Session = domain.LoggedOut()
	s.visitor.BootstrappedAt = at
	s.visitor.UpdatedAt = at
}

// expire forces the next request to run a bootstrap cycle without touching
// the session fields.
func (s *SessionState) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return
	}
	s.visitor.BootstrappedAt = time.Time{}
}

func copySession(in domain.Session) domain.Session {
	out := in
	if in.User != nil {
		u := *in.User
		out.User = &u
	}
	return out
}

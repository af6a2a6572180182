package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediavault/portal/internal/core/domain"
)

type sessionFixture struct {
	backend  *stubBackend
	cache    *stubCache
	notifier *stubNotifier
	activity *stubActivity
	svc      *SessionService
}

func newSessionFixture(b *stubBackend) *sessionFixture {
	f := &sessionFixture{
		backend:  b,
		cache:    newStubCache(),
		notifier: &stubNotifier{},
		activity: &stubActivity{},
	}
	f.svc = NewSessionService(b, f.cache, f.notifier, f.activity, zerolog.Nop())
	return f
}

func signedInState(t *testing.T) *SessionState {
	t.Helper()
	u := alice()
	v := domain.NewVisitor("v-1")
	v.Credentials["access_token"] = "a"
	v.Credentials["refresh_token"] = "r"
	v.Session = domain.Authenticated(&u)
	v.BootstrappedAt = time.Now().Add(-time.Hour)
	return NewSessionState(v)
}

func TestSessionBootstrap_Authenticated(t *testing.T) {
	f := newSessionFixture(&stubBackend{replies: []userReply{okUser()}})
	st := NewSessionState(domain.NewVisitor("v-1"))

	out := f.svc.Bootstrap(context.Background(), st)

	if out.State != domain.StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", out.State)
	}
	s := st.Snapshot()
	if !s.IsLoggedIn || s.Loading || s.User == nil || s.User.ID != "u-1" {
		t.Fatalf("unexpected session %+v", s)
	}
	if st.NeedsBootstrap(time.Now(), time.Minute) {
		t.Error("a settled cycle should not need another bootstrap right away")
	}
	if out.Redirect != "" {
		t.Errorf("expected no redirect, got %q", out.Redirect)
	}
}

func TestSessionBootstrap_UnauthenticatedIsSilent(t *testing.T) {
	f := newSessionFixture(&stubBackend{replies: []userReply{failWith(errUnauthorized)}, refreshErr: errUnauthorized})
	st := signedInState(t)

	out := f.svc.Bootstrap(context.Background(), st)

	if out.State != domain.StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", out.State)
	}
	s := st.Snapshot()
	if s.IsLoggedIn || s.User != nil || s.Loading {
		t.Fatalf("expected settled logged-out session, got %+v", s)
	}
	if len(f.notifier.items) != 0 {
		t.Errorf("expected no notification, got %+v", f.notifier.items)
	}
}

func TestSessionBootstrap_LoadingWhileInFlight(t *testing.T) {
	b := &stubBackend{replies: []userReply{okUser()}}
	f := newSessionFixture(b)
	st := NewSessionState(domain.NewVisitor("v-1"))

	var during domain.Session
	b.onGetUser = func() { during = st.Snapshot() }

	f.svc.Bootstrap(context.Background(), st)

	if !during.Loading {
		t.Fatal("session must report loading while the cycle runs")
	}
	if st.Snapshot().Loading {
		t.Fatal("session must stop loading once the cycle settles")
	}
}

func TestSessionBootstrap_RateLimitedKeepsSession(t *testing.T) {
	f := newSessionFixture(&stubBackend{replies: []userReply{failWith(errTooMany)}})
	st := signedInState(t)
	before := st.Visitor()

	out := f.svc.Bootstrap(context.Background(), st)

	if out.State != domain.StateRateLimited {
		t.Fatalf("expected rate_limited, got %s", out.State)
	}
	if out.Redirect != PathRateLimit {
		t.Errorf("expected redirect %s, got %q", PathRateLimit, out.Redirect)
	}
	after := st.Visitor()
	if after.Session.IsLoggedIn != before.Session.IsLoggedIn || after.Session.Loading != before.Session.Loading {
		t.Fatalf("session changed: before %+v after %+v", before.Session, after.Session)
	}
	if after.Session.User == nil || after.Session.User.ID != before.Session.User.ID {
		t.Fatal("user must be kept on rate limit")
	}
	if !after.BootstrappedAt.Equal(before.BootstrappedAt) {
		t.Error("a rate-limited cycle must not count as a settled bootstrap")
	}
	n, ok := f.notifier.last()
	if !ok || n.Level != domain.NotifyError {
		t.Fatalf("expected an error notification, got %+v", f.notifier.items)
	}
}

func TestSessionBootstrap_RateLimitedOnFreshVisitorStaysLoading(t *testing.T) {
	f := newSessionFixture(&stubBackend{replies: []userReply{failWith(errTooMany)}})
	st := NewSessionState(domain.NewVisitor("v-1"))

	f.svc.Bootstrap(context.Background(), st)

	if !st.Snapshot().Loading {
		t.Fatal("a visitor that never settled keeps loading after a rate-limited cycle")
	}
}

func TestSessionBootstrap_DetachedDiscardsResult(t *testing.T) {
	b := &stubBackend{replies: []userReply{okUser()}}
	f := newSessionFixture(b)
	st := NewSessionState(domain.NewVisitor("v-1"))
	b.onGetUser = st.Detach

	f.svc.Bootstrap(context.Background(), st)

	if st.Snapshot().IsLoggedIn {
		t.Fatal("a detached state must not accept the cycle's result")
	}
}

func TestSessionBootstrap_LogoutSupersedesCycle(t *testing.T) {
	b := &stubBackend{replies: []userReply{okUser()}}
	f := newSessionFixture(b)
	st := signedInState(t)
	b.onGetUser = func() { st.reset(time.Now()) }

	f.svc.Bootstrap(context.Background(), st)

	if s := st.Snapshot(); s.IsLoggedIn {
		t.Fatalf("a cycle started before a reset must not log the visitor back in: %+v", s)
	}
}

func TestSessionLogin_Success(t *testing.T) {
	b := &stubBackend{replies: []userReply{okUser()}, loginSets: domain.Credentials{"access_token": "new"}}
	f := newSessionFixture(b)
	st := NewSessionState(domain.NewVisitor("v-1"))
	_ = f.cache.Put(context.Background(), "v-1", KeyImages, []domain.Image{{ID: "stale"}})

	out, err := f.svc.Login(context.Background(), st, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Redirect != PathHome {
		t.Errorf("expected redirect home, got %q", out.Redirect)
	}
	if !st.Snapshot().IsLoggedIn {
		t.Fatal("expected signed-in session after login")
	}
	if st.Visitor().Credentials["access_token"] != "new" {
		t.Error("credentials set by the backend must be kept")
	}
	if f.cache.clears != 1 {
		t.Errorf("expected cache cleared once, got %d", f.cache.clears)
	}
	n, _ := f.notifier.last()
	if n.Level != domain.NotifySuccess || n.Message != "success!" {
		t.Errorf("unexpected notification %+v", n)
	}
	if len(f.activity.entries) != 1 || f.activity.entries[0].UserID != "u-1" {
		t.Errorf("expected one activity entry for u-1, got %+v", f.activity.entries)
	}
}

func TestSessionLogin_BackendRejects(t *testing.T) {
	rejected := &domain.APIError{Code: 400, Status: "error", Message: "invalid credentials"}
	f := newSessionFixture(&stubBackend{loginErr: rejected})
	st := NewSessionState(domain.NewVisitor("v-1"))

	out, err := f.svc.Login(context.Background(), st, "alice@example.com", "wrong")
	if !errors.Is(err, rejected) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if out.Redirect != "" {
		t.Errorf("expected no redirect, got %q", out.Redirect)
	}
	n, _ := f.notifier.last()
	if n.Level != domain.NotifyError || n.Message != "invalid credentials" {
		t.Errorf("expected backend message surfaced, got %+v", n)
	}
	if f.cache.clears != 0 {
		t.Error("failed login must not clear the cache")
	}
}

func TestSessionLogin_EmptyInput(t *testing.T) {
	f := newSessionFixture(&stubBackend{})

	_, err := f.svc.Login(context.Background(), NewSessionState(nil), " ", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSessionLogin_RateLimited(t *testing.T) {
	f := newSessionFixture(&stubBackend{loginErr: errTooMany})

	out, err := f.svc.Login(context.Background(), NewSessionState(nil), "a@b.c", "pw")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if out.Redirect != PathRateLimit {
		t.Errorf("expected rate-limit redirect, got %q", out.Redirect)
	}
}

func TestSessionLogin_RateLimitedBootstrapSkipsSuccessToast(t *testing.T) {
	b := &stubBackend{replies: []userReply{failWith(errTooMany)}, loginSets: domain.Credentials{"access_token": "new"}}
	f := newSessionFixture(b)
	st := NewSessionState(domain.NewVisitor("v-1"))

	out, err := f.svc.Login(context.Background(), st, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Redirect != PathRateLimit {
		t.Errorf("expected rate-limit redirect, got %q", out.Redirect)
	}
	if len(f.notifier.items) != 1 || f.notifier.items[0].Level != domain.NotifyError {
		t.Fatalf("expected only the rate-limit toast, got %+v", f.notifier.items)
	}
	if len(f.activity.entries) != 1 || f.activity.entries[0].Outcome != domain.OutcomeSuccess {
		t.Errorf("the backend login itself still succeeded, got %+v", f.activity.entries)
	}
}

func TestSessionLogin_UnauthenticatedBootstrapSkipsSuccessToast(t *testing.T) {
	b := &stubBackend{replies: []userReply{failWith(errUnauthorized)}, refreshErr: errUnauthorized}
	f := newSessionFixture(b)
	st := NewSessionState(domain.NewVisitor("v-1"))

	if _, err := f.svc.Login(context.Background(), st, "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Snapshot().IsLoggedIn {
		t.Fatal("session must stay logged out")
	}
	if len(f.notifier.items) != 0 {
		t.Errorf("expected no toast, got %+v", f.notifier.items)
	}
}

func TestSessionRegister_Success(t *testing.T) {
	f := newSessionFixture(&stubBackend{replies: []userReply{okUser()}})
	st := NewSessionState(domain.NewVisitor("v-1"))

	out, err := f.svc.Register(context.Background(), st, "alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Redirect != PathHome || !out.Session.IsLoggedIn {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestSessionLogout_ClearsEverything(t *testing.T) {
	f := newSessionFixture(&stubBackend{logoutStatus: "logged out"})
	st := signedInState(t)

	out := f.svc.Logout(context.Background(), st)

	if out.Redirect != PathLogin {
		t.Errorf("expected redirect to login, got %q", out.Redirect)
	}
	v := st.Visitor()
	if v.Session.IsLoggedIn || v.Session.User != nil || v.Session.Loading {
		t.Fatalf("expected logged-out session, got %+v", v.Session)
	}
	if !v.Credentials.Empty() {
		t.Errorf("expected credentials dropped, got %v", v.Credentials)
	}
	if f.cache.clears != 1 {
		t.Errorf("expected cache cleared, got %d clears", f.cache.clears)
	}
	n, _ := f.notifier.last()
	if n.Level != domain.NotifySuccess || n.Message != "logged out" {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestSessionLogout_BackendFailureStillResets(t *testing.T) {
	f := newSessionFixture(&stubBackend{logoutErr: errServer})
	st := signedInState(t)

	out := f.svc.Logout(context.Background(), st)

	if out.Session.IsLoggedIn || out.Session.User != nil {
		t.Fatalf("expected local reset despite backend failure, got %+v", out.Session)
	}
	if !st.Visitor().Credentials.Empty() {
		t.Error("credentials must be dropped even when the backend fails")
	}
	n, _ := f.notifier.last()
	if n.Level != domain.NotifyError || n.Message != "boom" {
		t.Errorf("expected error notification with backend message, got %+v", n)
	}
	if len(f.activity.entries) != 1 || f.activity.entries[0].UserID != "u-1" {
		t.Errorf("logout activity should name the user signing out, got %+v", f.activity.entries)
	}
}

func TestSessionUpdatePassword_Validation(t *testing.T) {
	f := newSessionFixture(&stubBackend{})
	st := signedInState(t)

	cases := []struct {
		name                   string
		current, next, confirm string
	}{
		{"missing current", "", "longenough", "longenough"},
		{"mismatch", "old", "longenough", "different1"},
		{"too short", "old", "short", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.UpdatePassword(context.Background(), st, tc.current, tc.next, tc.confirm)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSessionUpdatePassword_RequiresSession(t *testing.T) {
	f := newSessionFixture(&stubBackend{})

	err := f.svc.UpdatePassword(context.Background(), NewSessionState(nil), "old", "longenough", "longenough")
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSessionUpdatePassword_Success(t *testing.T) {
	f := newSessionFixture(&stubBackend{})
	st := signedInState(t)

	if err := f.svc.UpdatePassword(context.Background(), st, "old", "longenough", "longenough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, _ := f.notifier.last()
	if n.Level != domain.NotifySuccess {
		t.Errorf("expected success notification, got %+v", n)
	}
}

func TestSessionSecretKey(t *testing.T) {
	f := newSessionFixture(&stubBackend{secretKey: "sk_live_123"})
	st := signedInState(t)

	key, err := f.svc.SecretKey(context.Background(), st, "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "sk_live_123" {
		t.Errorf("expected key, got %q", key)
	}

	if _, err := f.svc.SecretKey(context.Background(), st, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty password, got %v", err)
	}
}

func TestSessionExpire(t *testing.T) {
	f := newSessionFixture(&stubBackend{})
	st := signedInState(t)
	if st.NeedsBootstrap(time.Now(), 0) {
		t.Fatal("fixture should start settled")
	}

	f.svc.Expire(st)

	if !st.NeedsBootstrap(time.Now(), 0) {
		t.Fatal("expired state must need a bootstrap")
	}
	if !st.Snapshot().IsLoggedIn {
		t.Error("expire must not touch the session")
	}
}

func TestSessionActivityFailureIsNotFatal(t *testing.T) {
	f := newSessionFixture(&stubBackend{replies: []userReply{okUser()}})
	f.activity.insertErr = errPlain

	if _, err := f.svc.Login(context.Background(), NewSessionState(nil), "a@b.c", "pw"); err != nil {
		t.Fatalf("activity failures must not fail the action: %v", err)
	}
}

func TestSessionActivity_NewestFirst(t *testing.T) {
	f := newSessionFixture(&stubBackend{secretKey: "sk_1"})
	st := signedInState(t)

	if err := f.svc.UpdatePassword(context.Background(), st, "old", "longenough", "longenough"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SecretKey(context.Background(), st, "pw"); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.Activity(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %+v", got)
	}
	if got[0].Action != domain.ActionSecretKey || got[1].Action != domain.ActionUpdatePassword {
		t.Errorf("unexpected order %+v", got)
	}
	if got[0].UserID != "u-1" {
		t.Errorf("expected entries attributed to the user, got %q", got[0].UserID)
	}
}

func TestSessionActivity_RequiresSession(t *testing.T) {
	f := newSessionFixture(&stubBackend{})

	if _, err := f.svc.Activity(context.Background(), NewSessionState(nil)); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

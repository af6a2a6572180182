package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mediavault/portal/internal/api/middleware"
	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/service"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSessions struct {
	loginFn    func(ctx context.Context, st *service.SessionState, email, password string) (service.Outcome, error)
	registerFn func(ctx context.Context, st *service.SessionState, username, email, password string) (service.Outcome, error)
	passwordFn func(ctx context.Context, st *service.SessionState, current, next, confirm string) error
	secretFn   func(ctx context.Context, st *service.SessionState, password string) (string, error)
	activity   []domain.Activity

	logoutCalls int
	expired     int
}

func (s *stubSessions) Expire(*service.SessionState) { s.expired++ }

func (s *stubSessions) Login(ctx context.Context, st *service.SessionState, email, password string) (service.Outcome, error) {
	return s.loginFn(ctx, st, email, password)
}

func (s *stubSessions) Register(ctx context.Context, st *service.SessionState, username, email, password string) (service.Outcome, error) {
	return s.registerFn(ctx, st, username, email, password)
}

func (s *stubSessions) Logout(_ context.Context, st *service.SessionState) service.Outcome {
	s.logoutCalls++
	return service.Outcome{State: domain.StateUnauthenticated, Session: domain.LoggedOut(), Redirect: service.PathLogin}
}

func (s *stubSessions) UpdatePassword(ctx context.Context, st *service.SessionState, current, next, confirm string) error {
	return s.passwordFn(ctx, st, current, next, confirm)
}

func (s *stubSessions) SecretKey(ctx context.Context, st *service.SessionState, password string) (string, error) {
	return s.secretFn(ctx, st, password)
}

func (s *stubSessions) Activity(context.Context, *service.SessionState) ([]domain.Activity, error) {
	return s.activity, nil
}

type stubMedia struct {
	images    []domain.Image
	imagesErr error
	deleted   []string
	videos    []domain.Video

	uploaded  []domain.Upload
	uploadRes *domain.UploadResult

	mutationErr error
	lastID      string
	width       int
	height      int

	checkout *domain.CheckoutSession
}

func (m *stubMedia) Images(context.Context, *service.SessionState) ([]domain.Image, error) {
	return m.images, m.imagesErr
}

func (m *stubMedia) UploadImages(_ context.Context, _ *service.SessionState, files []domain.Upload) (*domain.UploadResult, error) {
	m.uploaded = files
	return m.uploadRes, m.mutationErr
}

func (m *stubMedia) DeleteImage(_ context.Context, _ *service.SessionState, id string) error {
	m.lastID = id
	return m.mutationErr
}

func (m *stubMedia) DeletedImages(context.Context, *service.SessionState) ([]string, error) {
	return m.deleted, nil
}

func (m *stubMedia) RecoverImage(_ context.Context, _ *service.SessionState, id string) error {
	m.lastID = id
	return m.mutationErr
}

func (m *stubMedia) PurgeImage(_ context.Context, _ *service.SessionState, id string) error {
	m.lastID = id
	return m.mutationErr
}

func (m *stubMedia) ResizeImage(_ context.Context, _ *service.SessionState, id string, width, height int) (*domain.ResizedImage, error) {
	m.lastID, m.width, m.height = id, width, height
	if m.mutationErr != nil {
		return nil, m.mutationErr
	}
	return &domain.ResizedImage{URL: "https://cdn.example/" + id}, nil
}

func (m *stubMedia) Videos(context.Context, *service.SessionState) ([]domain.Video, error) {
	return m.videos, nil
}

func (m *stubMedia) UploadVideos(_ context.Context, _ *service.SessionState, files []domain.Upload) (*domain.UploadResult, error) {
	m.uploaded = files
	return m.uploadRes, m.mutationErr
}

func (m *stubMedia) DeleteVideo(_ context.Context, _ *service.SessionState, vid string) error {
	m.lastID = vid
	return m.mutationErr
}

func (m *stubMedia) Checkout(context.Context, *service.SessionState) (*domain.CheckoutSession, error) {
	if m.mutationErr != nil {
		return nil, m.mutationErr
	}
	return m.checkout, nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var errUnauthorized = &domain.APIError{Code: http.StatusUnauthorized, Status: "error", Message: "unauthorized"}

func alice() *domain.UserRecord {
	return &domain.UserRecord{ID: "u-1", Username: "alice", Email: "alice@example.com", AccountType: domain.AccountFree}
}

func signedInState() *service.SessionState {
	v := domain.NewVisitor("v-1")
	v.Session = domain.Authenticated(alice())
	return service.NewSessionState(v)
}

func loggedOutState() *service.SessionState {
	v := domain.NewVisitor("v-1")
	v.Session = domain.LoggedOut()
	return service.NewSessionState(v)
}

// newContext builds an echo context with a validator and, when st is not
// nil, the session state attached the way the Visitor middleware does.
func newContext(method, target string, body io.Reader, st *service.SessionState) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if st != nil {
		middleware.SetState(c, st)
	}
	return c, rec
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

// httpCode returns the status of the *echo.HTTPError err must be.
func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/service"
)

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubSessions{
		loginFn: func(_ context.Context, _ *service.SessionState, email, password string) (service.Outcome, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return service.Outcome{
				State:    domain.StateAuthenticated,
				Session:  domain.Authenticated(alice()),
				Redirect: service.PathHome,
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/auth/login", jsonBody(`{"email":"alice@example.com","password":"secret"}`), loggedOutState())
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp service.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Redirect != "/" || !resp.Session.IsLoggedIn || resp.Session.User.Username != "alice" {
		t.Fatalf("unexpected outcome: %+v", resp)
	}
}

func TestAuthHandler_Login_BackendRejects(t *testing.T) {
	rejected := &domain.APIError{Code: http.StatusUnauthorized, Status: "error", Message: "Invalid credentials"}
	stub := &stubSessions{
		loginFn: func(context.Context, *service.SessionState, string, string) (service.Outcome, error) {
			return service.Outcome{}, rejected
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/auth/login", jsonBody(`{"email":"alice@example.com","password":"bad"}`), loggedOutState())
	if err := handler.Login(c); !errors.Is(err, rejected) {
		t.Fatalf("expected backend error to reach the error handler, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubSessions{
		loginFn: func(context.Context, *service.SessionState, string, string) (service.Outcome, error) {
			t.Fatalf("should not be called")
			return service.Outcome{}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/auth/login", jsonBody("not-json"), loggedOutState())
	if code := httpCode(t, handler.Login(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_Login_ValidationFails(t *testing.T) {
	stub := &stubSessions{
		loginFn: func(context.Context, *service.SessionState, string, string) (service.Outcome, error) {
			t.Fatalf("should not be called")
			return service.Outcome{}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/auth/login", jsonBody(`{"email":"not-an-email"}`), loggedOutState())
	if code := httpCode(t, handler.Login(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestAuthHandler_Login_MissingState(t *testing.T) {
	handler := NewAuthHandler(&stubSessions{})

	c, _ := newContext(http.MethodPost, "/auth/login", jsonBody(`{}`), nil)
	if code := httpCode(t, handler.Login(c)); code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubSessions{
		registerFn: func(_ context.Context, _ *service.SessionState, username, email, password string) (service.Outcome, error) {
			if username != "alice" || email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s %s", username, email, password)
			}
			return service.Outcome{State: domain.StateAuthenticated, Session: domain.Authenticated(alice()), Redirect: "/"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/auth/register",
		jsonBody(`{"username":"alice","email":"alice@example.com","password":"secret"}`), loggedOutState())
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	exists := &domain.APIError{Code: http.StatusConflict, Status: "error", Message: "User already exists"}
	stub := &stubSessions{
		registerFn: func(context.Context, *service.SessionState, string, string, string) (service.Outcome, error) {
			return service.Outcome{}, exists
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/auth/register",
		jsonBody(`{"username":"bob","email":"bob@example.com","password":"pw"}`), loggedOutState())
	if err := handler.Register(c); !errors.Is(err, exists) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestAuthHandler_Register_UsernameTooLong(t *testing.T) {
	handler := NewAuthHandler(&stubSessions{})

	body := `{"username":"` + strings.Repeat("a", 65) + `","email":"a@example.com","password":"pw"}`
	c, _ := newContext(http.MethodPost, "/auth/register", jsonBody(body), loggedOutState())
	if code := httpCode(t, handler.Register(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	stub := &stubSessions{}
	handler := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/auth/logout", nil, signedInState())
	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || stub.logoutCalls != 1 {
		t.Fatalf("expected 200 and one logout, got %d and %d", rec.Code, stub.logoutCalls)
	}

	var resp service.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Redirect != "/login" || resp.Session.IsLoggedIn {
		t.Fatalf("unexpected outcome: %+v", resp)
	}
}

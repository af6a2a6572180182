package backend

import (
	"context"
	"net/http"

	"github.com/mediavault/portal/internal/core/domain"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updatePasswordBody struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type passwordBody struct {
	Password string `json:"password"`
}

// GetUser calls GET /api/users/get-user. The backend answers with an array
// of zero or one records.
func (c *Client) GetUser(ctx context.Context, creds domain.Credentials) ([]domain.UserRecord, error) {
	var env envelope[[]domain.UserRecord]
	err := c.do(ctx, request{
		op:     "get_user",
		method: http.MethodGet,
		path:   "/api/users/get-user",
	}, creds, &env)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// RefreshToken calls GET /api/users/refresh-token. On success the backend
// sets a fresh access token cookie, which lands in creds.
func (c *Client) RefreshToken(ctx context.Context, creds domain.Credentials) error {
	return c.do(ctx, request{
		op:      "refresh_token",
		method:  http.MethodGet,
		path:    "/api/users/refresh-token",
		timeout: c.refreshTimeout,
	}, creds, nil)
}

// Logout calls GET /api/users/logout.
func (c *Client) Logout(ctx context.Context, creds domain.Credentials) (string, error) {
	var env envelope[any]
	err := c.do(ctx, request{
		op:     "logout",
		method: http.MethodGet,
		path:   "/api/users/logout",
	}, creds, &env)
	if err != nil {
		return "", err
	}
	return env.Status, nil
}

// Login calls POST /api/users/login; the session cookies land in creds.
func (c *Client) Login(ctx context.Context, creds domain.Credentials, email, password string) error {
	return c.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   "/api/users/login",
		json:   loginBody{Email: email, Password: password},
	}, creds, nil)
}

// Register calls POST /api/users/register.
func (c *Client) Register(ctx context.Context, creds domain.Credentials, username, email, password string) error {
	return c.do(ctx, request{
		op:     "register",
		method: http.MethodPost,
		path:   "/api/users/register",
		json:   registerBody{Username: username, Email: email, Password: password},
	}, creds, nil)
}

// UpdatePassword calls POST /api/users/update-password.
func (c *Client) UpdatePassword(ctx context.Context, creds domain.Credentials, current, next string) error {
	return c.do(ctx, request{
		op:     "update_password",
		method: http.MethodPost,
		path:   "/api/users/update-password",
		json:   updatePasswordBody{CurrentPassword: current, NewPassword: next},
	}, creds, nil)
}

// GetSecretKey calls POST /api/users/get-secret-key and returns the key.
func (c *Client) GetSecretKey(ctx context.Context, creds domain.Credentials, password string) (string, error) {
	var env envelope[[]string]
	err := c.do(ctx, request{
		op:     "get_secret_key",
		method: http.MethodPost,
		path:   "/api/users/get-secret-key",
		json:   passwordBody{Password: password},
	}, creds, &env)
	if err != nil {
		return "", err
	}
	if len(env.Data) == 0 {
		return "", &domain.APIError{Status: "error", Message: "get-secret-key: empty response"}
	}
	return env.Data[0], nil
}

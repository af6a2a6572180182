package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRateLimited         = errors.New("too many requests")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrInvalidInput        = errors.New("invalid input")
	ErrVisitorNotFound     = errors.New("visitor not found")
	ErrBootstrapInProgress = errors.New("session bootstrap in progress")
)

// APIError is the {status, message} envelope the backend returns on any
// non-2xx response. Code is the HTTP status, or 0 when the request never got
// a response (network or decode failure).
type APIError struct {
	Code    int    `json:"-"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("backend: %s", e.Message)
	}
	return fmt.Sprintf("backend %d: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrRateLimited) and errors.Is(err,
// ErrNotAuthenticated) match backend responses.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.IsRateLimited()
	case ErrNotAuthenticated:
		return e.IsUnauthorized()
	}
	return false
}

// IsRateLimited reports an HTTP 429 response.
func (e *APIError) IsRateLimited() bool {
	return e.Code == http.StatusTooManyRequests
}

// IsUnauthorized reports an HTTP 401 response.
func (e *APIError) IsUnauthorized() bool {
	return e.Code == http.StatusUnauthorized
}

// MessageOf extracts the message a user should see for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediavault/portal/internal/api/middleware"
	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/service"
)

// ctxState extracts the session state attached by the Visitor middleware
// and fails fast when the route was registered outside it.
func ctxState(c echo.Context) (*service.SessionState, error) {
	st := middleware.StateOf(c)
	if st == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session state missing")
	}
	return st, nil
}

// expireOnUnauthorized marks the session for a new bootstrap cycle when the
// backend stopped accepting its credentials mid-session.
func expireOnUnauthorized(exp Expirer, st *service.SessionState, err error) {
	if errors.Is(err, domain.ErrNotAuthenticated) {
		exp.Expire(st)
	}
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/service"
)

// Decision is the route guard's verdict for a session.
type Decision int

const (
	// DecisionLoading renders nothing while a bootstrap cycle runs.
	DecisionLoading Decision = iota
	DecisionAllow
	// DecisionRedirect sends the visitor to the login page.
	DecisionRedirect
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionAllow:
		return "allow"
	default:
		return "redirect"
	}
}

// Decide never redirects while the session is loading.
func Decide(s domain.Session) Decision {
	switch {
	case s.Loading:
		return DecisionLoading
	case s.IsLoggedIn && s.User != nil:
		return DecisionAllow
	default:
		return DecisionRedirect
	}
}

// RequireSession guards routes that need a signed-in user.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch Decide(SessionOf(c)) {
			case DecisionAllow:
				return next(c)
			case DecisionLoading:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusAccepted, map[string]string{"status": "loading"})
			default:
				return Redirect(c, service.PathLogin)
			}
		}
	}
}

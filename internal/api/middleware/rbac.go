package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediavault/portal/internal/core/domain"
)

// RequireAccountType restricts a guarded route to the given account tiers.
// It must run after RequireSession.
func RequireAccountType(allowedTypes ...domain.AccountType) echo.MiddlewareFunc {
	allowed := make(map[domain.AccountType]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := SessionOf(c)
			if s.User == nil {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			accountType := s.User.AccountType
			if accountType == "" {
				accountType = domain.AccountFree
			}
			if _, ok := allowed[accountType]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediavault/portal/internal/api/middleware"
	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/ports"
	"github.com/mediavault/portal/internal/core/service"
)

type SessionHandler struct {
	notifier ports.Notifier
}

func NewSessionHandler(notifier ports.Notifier) *SessionHandler {
	return &SessionHandler{notifier: notifier}
}

// Session returns the visitor's current session.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.Session
// @Router       /session [get]
func (h *SessionHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.SessionOf(c))
}

// Notifications drains the visitor's pending notifications.
//
// @Summary      Pending notifications
// @Tags         session
// @Produce      json
// @Success      200  {object}  notificationsResponse
// @Router       /notifications [get]
func (h *SessionHandler) Notifications(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	items, err := h.notifier.Drain(c.Request().Context(), st.ID())
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return c.JSON(http.StatusOK, notificationsResponse{Notifications: items})
}

// LoginPage describes the login page. A signed-in visitor is sent home.
//
// @Summary      Login page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /login [get]
func (h *SessionHandler) LoginPage(c echo.Context) error {
	if middleware.Decide(middleware.SessionOf(c)) == middleware.DecisionAllow {
		return middleware.Redirect(c, service.PathHome)
	}
	return c.JSON(http.StatusOK, pageResponse{Page: "login", Title: "Sign in"})
}

// RegisterPage describes the registration page.
//
// @Summary      Register page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /register [get]
func (h *SessionHandler) RegisterPage(c echo.Context) error {
	if middleware.Decide(middleware.SessionOf(c)) == middleware.DecisionAllow {
		return middleware.Redirect(c, service.PathHome)
	}
	return c.JSON(http.StatusOK, pageResponse{Page: "register", Title: "Create an account"})
}

// RateLimitPage is where rate-limited visitors land.
//
// @Summary      Rate limit page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /rate-limit [get]
func (h *SessionHandler) RateLimitPage(c echo.Context) error {
	c.Response().Header().Set("Retry-After", "60")
	return c.JSON(http.StatusOK, pageResponse{
		Page:    "rate-limit",
		Title:   "Slow down",
		Message: "You have made too many requests. Please wait a moment before trying again.",
	})
}

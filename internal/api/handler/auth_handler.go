package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	sessions SessionActions
}

func NewAuthHandler(sessions SessionActions) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Login signs the visitor in against the backend and re-runs the session
// bootstrap.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  service.Outcome
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      303   {object}  middleware.RedirectBody
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	out, err := h.sessions.Login(c.Request().Context(), st, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Register creates an account and signs the visitor in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  service.Outcome
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	out, err := h.sessions.Register(c.Request().Context(), st, req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Logout ends the session. The local session is cleared even when the
// backend call fails.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  service.Outcome
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.sessions.Logout(c.Request().Context(), st))
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediavault/portal/internal/api/middleware"
)

type ProfileHandler struct {
	sessions SessionActions
}

func NewProfileHandler(sessions SessionActions) *ProfileHandler {
	return &ProfileHandler{sessions: sessions}
}

// Get returns the signed-in user's account.
//
// @Summary      Profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  profileResponse
// @Failure      303  {object}  middleware.RedirectBody
// @Router       /profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	u := middleware.SessionOf(c).User
	return c.JSON(http.StatusOK, profileResponse{User: u, Paid: u.Paid()})
}

// Activity lists the user's recent actions.
//
// @Summary      Recent activity
// @Tags         profile
// @Produce      json
// @Success      200  {object}  activityResponse
// @Failure      303  {object}  middleware.RedirectBody
// @Router       /profile/activity [get]
func (h *ProfileHandler) Activity(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	entries, err := h.sessions.Activity(c.Request().Context(), st)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activityResponse{Activity: entries})
}

// UpdatePassword changes the signed-in user's password.
//
// @Summary      Update password
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        body  body      updatePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /profile/password [post]
func (h *ProfileHandler) UpdatePassword(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}

	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	err = h.sessions.UpdatePassword(c.Request().Context(), st, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		expireOnUnauthorized(h.sessions, st, err)
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// SecretKey reveals the user's secret key after re-entering the password.
//
// @Summary      Reveal secret key
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        body  body      secretKeyRequest  true  "Account password"
// @Success      200   {object}  secretKeyResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /profile/secret-key [post]
func (h *ProfileHandler) SecretKey(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}

	var req secretKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	key, err := h.sessions.SecretKey(c.Request().Context(), st, req.Password)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, secretKeyResponse{SecretKey: key})
}

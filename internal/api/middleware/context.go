package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/service"
)

const (
	ctxState   = "portal.session_state"
	ctxPending = "portal.bootstrap_pending"
)

// StateOf returns the session state the Visitor middleware attached, or nil.
func StateOf(c echo.Context) *service.SessionState {
	st, _ := c.Get(ctxState).(*service.SessionState)
	return st
}

// SetState attaches st to the request.
func SetState(c echo.Context, st *service.SessionState) {
	c.Set(ctxState, st)
}

// SessionOf returns the session as this request should see it. A request
// that found another request of the same visitor mid-bootstrap sees it as
// loading.
func SessionOf(c echo.Context) domain.Session {
	st := StateOf(c)
	if st == nil {
		return domain.NewSession()
	}
	s := st.Snapshot()
	if pending, _ := c.Get(ctxPending).(bool); pending {
		s.Loading = true
	}
	return s
}

// RedirectBody is sent along with every 303 the portal issues so API
// clients can navigate without following Location.
type RedirectBody struct {
	Redirect string `json:"redirect"`
	Replace  bool   `json:"replace"`
}

// Redirect answers 303 See Other to path. The navigation replaces the
// current history entry.
func Redirect(c echo.Context, path string) error {
	c.Response().Header().Set(echo.HeaderLocation, path)
	return c.JSON(http.StatusSeeOther, RedirectBody{Redirect: path, Replace: true})
}

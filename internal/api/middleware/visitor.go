package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/ports"
	"github.com/mediavault/portal/internal/core/service"
)

// CookieName is the cookie identifying a visitor to the portal.
const CookieName = "portal_visitor"

const issuer = "mediavault-portal"

type VisitorConfig struct {
	Secret string
	TTL    time.Duration
	Secure bool
	Store  ports.VisitorStore
	Log    zerolog.Logger
}

// Visitor resolves the signed visitor cookie into a session state for the
// request, issuing a new visitor when the cookie is missing or invalid. The
// record is written back after the handler when it changed.
func Visitor(cfg VisitorConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			var v *domain.Visitor
			isNew := false
			if id := visitorID(c, cfg.Secret); id != "" {
				loaded, err := cfg.Store.Load(ctx, id)
				switch {
				case err == nil:
					v = loaded
				case errors.Is(err, domain.ErrVisitorNotFound):
					v, isNew = domain.NewVisitor(id), true
				default:
					return fmt.Errorf("load visitor: %w", err)
				}
			}
			if v == nil {
				v, isNew = domain.NewVisitor(uuid.NewString()), true
				cookie, err := visitorCookie(v.ID, cfg)
				if err != nil {
					return err
				}
				c.SetCookie(cookie)
			}

			st := service.NewSessionState(v)
			before := st.Visitor()
			SetState(c, st)

			err := next(c)

			if !st.Detached() {
				after := st.Visitor()
				if isNew || !reflect.DeepEqual(before, after) {
					after.UpdatedAt = time.Now().UTC()
					if serr := cfg.Store.Save(ctx, &after, cfg.TTL); serr != nil {
						cfg.Log.Error().Err(serr).Str("visitor", after.ID).Msg("failed to save visitor")
					}
				}
			}
			st.Detach()
			return err
		}
	}
}

// visitorID returns the subject of a valid visitor cookie, or "".
func visitorID(c echo.Context, secret string) string {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil || !tkn.Valid {
		return ""
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return ""
	}
	return claims.Subject
}

func visitorCookie(id string, cfg VisitorConfig) (*http.Cookie, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
	})
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign visitor cookie: %w", err)
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

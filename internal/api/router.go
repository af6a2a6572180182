package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mediavault/portal/docs"
	"github.com/mediavault/portal/internal/api/handler"
	"github.com/mediavault/portal/internal/api/middleware"
	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/ports"
	"github.com/mediavault/portal/internal/core/service"
)

// Deps is everything the router wires into handlers and middleware.
type Deps struct {
	Sessions *service.SessionService
	Media    *service.MediaService
	Visitors ports.VisitorStore
	Lock     ports.BootstrapLock
	Notifier ports.Notifier
	Health   map[string]handler.Pinger

	SessionSecret   string
	SessionTTL      time.Duration
	SecureCookie    bool
	RevalidateAfter time.Duration

	// Registry receives the HTTP metrics. Nil uses the default registry.
	Registry *prometheus.Registry

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))

	promCfg := echoprometheus.MiddlewareConfig{Namespace: "portal", Subsystem: "http"}
	metricsCfg := echoprometheus.HandlerConfig{}
	if d.Registry != nil {
		promCfg.Registerer = d.Registry
		metricsCfg.Gatherer = d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	// --- Operational routes (no visitor) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(metricsCfg))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Visitor routes ---
	app := e.Group("",
		middleware.Visitor(middleware.VisitorConfig{
			Secret: d.SessionSecret,
			TTL:    d.SessionTTL,
			Secure: d.SecureCookie,
			Store:  d.Visitors,
			Log:    d.Log,
		}),
		middleware.Bootstrap(middleware.BootstrapConfig{
			// Login and register run their own cycle; logout must reset the
			// session even when a cycle would be rate limited.
			Skipper: func(c echo.Context) bool {
				switch c.Path() {
				case service.PathRateLimit, "/auth/login", "/auth/register", "/auth/logout":
					return true
				}
				return false
			},
			Sessions:        d.Sessions,
			Lock:            d.Lock,
			RevalidateAfter: d.RevalidateAfter,
			Log:             d.Log,
		}),
	)

	sessionHandler := handler.NewSessionHandler(d.Notifier)
	authHandler := handler.NewAuthHandler(d.Sessions)

	app.GET("/session", sessionHandler.Session)
	app.GET("/notifications", sessionHandler.Notifications)
	app.GET("/login", sessionHandler.LoginPage)
	app.GET("/register", sessionHandler.RegisterPage)
	app.GET(service.PathRateLimit, sessionHandler.RateLimitPage)

	app.POST("/auth/login", authHandler.Login)
	app.POST("/auth/register", authHandler.Register)
	app.POST("/auth/logout", authHandler.Logout)

	// --- Guarded routes ---
	guard := middleware.RequireSession()

	profileHandler := handler.NewProfileHandler(d.Sessions)
	app.GET("/profile", profileHandler.Get, guard)
	app.GET("/profile/activity", profileHandler.Activity, guard)
	app.POST("/profile/password", profileHandler.UpdatePassword, guard)
	app.POST("/profile/secret-key", profileHandler.SecretKey, guard)

	mediaHandler := handler.NewMediaHandler(d.Media, d.Sessions)
	app.GET("/images", mediaHandler.ListImages, guard)
	app.POST("/images", mediaHandler.UploadImages, guard)
	app.GET("/images/deleted", mediaHandler.ListDeletedImages, guard)
	app.POST("/images/deleted/:id/recover", mediaHandler.RecoverImage, guard)
	app.DELETE("/images/deleted/:id", mediaHandler.PurgeImage, guard)
	app.DELETE("/images/:id", mediaHandler.DeleteImage, guard)
	app.POST("/images/:id/resize", mediaHandler.ResizeImage, guard)

	app.GET("/videos", mediaHandler.ListVideos, guard)
	app.POST("/videos", mediaHandler.UploadVideos, guard)
	app.DELETE("/videos/:id", mediaHandler.DeleteVideo, guard)

	app.POST("/billing/checkout", mediaHandler.Checkout, guard, middleware.RequireAccountType(domain.AccountFree))

	return e
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

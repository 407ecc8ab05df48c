package api

import (
	"net"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sbecom/sb-ecom/internal/api/handler"
	"github.com/sbecom/sb-ecom/internal/api/middleware"
	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

// Dependencies carries everything the HTTP layer needs; it is assembled in
// cmd/api from configuration.
type Dependencies struct {
	Log           zerolog.Logger
	Policy        *domain.Policy
	Authenticator ports.Authenticator
	AuthService   ports.AuthService
	UserService   ports.UserService
	Cookie        handler.CookieConfig
	SigninRate    float64
	SigninBurst   int
	Readiness     []handler.DependencyCheck

	// TrustedProxies lists the networks whose X-Forwarded-For header is
	// believed. Empty means the client IP is always the peer address.
	TrustedProxies []*net.IPNet
}

// NewRouter builds and returns the Echo instance with all routes registered.
//
// Every request passes Classify → Authenticate → Authorize before reaching
// a handler, including requests that match no route.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.IPExtractor = ipExtractor(deps.TrustedProxies)

	// Per-router registry so several routers can coexist in one process.
	httpMetrics := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "sbecom",
		Registerer: httpMetrics,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Security chain ---
	e.Use(middleware.Classify(deps.Policy))
	e.Use(middleware.Authenticate(middleware.NewTokenExtractor(deps.Cookie.Name), deps.Authenticator, deps.Log))
	e.Use(middleware.Authorize(deps.Log))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Cookie, deps.Log)
	var signinGuards []echo.MiddlewareFunc
	if deps.SigninRate > 0 {
		signinGuards = append(signinGuards, middleware.SigninRateLimit(deps.SigninRate, deps.SigninBurst))
	}

	auth := e.Group("/api/auth")
	auth.POST("/signin", authHandler.Signin, signinGuards...)
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/signout", authHandler.Signout)
	auth.GET("/username", authHandler.Username)
	auth.GET("/user", authHandler.CurrentUser)

	// --- Admin routes ---
	adminHandler := handler.NewAdminHandler(deps.UserService)
	admin := e.Group("/api/admin", middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/users/:username", adminHandler.GetUser)
	admin.PUT("/users/:username/roles", adminHandler.ReplaceRoles)

	// --- Health probes and metrics (public in the default policy) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, httpMetrics},
	}))

	return e
}

// ipExtractor decides what c.RealIP returns. Forwarding headers are only
// honoured when they arrive from a configured proxy network.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
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

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/medmarket-admin/internal/api/http/handlers"
	"github.com/spec-kit/medmarket-admin/internal/auth"
	"github.com/spec-kit/medmarket-admin/internal/events"
	"github.com/spec-kit/medmarket-admin/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Session      *handlers.SessionHandler
	History      *handlers.HistoryHandler
	Proxy        *handlers.ProxyHandler
	SessionMW    *auth.SessionMiddleware
	Metrics      *observability.Metrics
	Dispatcher   events.Dispatcher
	LoginRoute   string
	LandingRoute string
}

// RegisterRoutes wires HTTP routes. Guard composition mirrors the
// navigation tree: authentication-only routes, admin-only route trees
// (redirecting), and admin-only subtrees inside the authenticated API
// surface (in-place denial).
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Get(cfg.LoginRoute, cfg.Session.LoginPage)

	authGroup := app.Group("/auth", cfg.SessionMW.Handle)
	authGroup.Post("/login", cfg.Session.Login)
	authGroup.Post("/logout", cfg.Session.Logout)
	authGroup.Get("/session", cfg.Session.Session)

	app.Get(cfg.LandingRoute, cfg.SessionMW.Handle,
		auth.RequireSession(cfg.LoginRoute, cfg.Metrics), cfg.Session.Landing)

	adminGroup := app.Group("/admin", cfg.SessionMW.Handle,
		auth.RequireSession(cfg.LoginRoute, cfg.Metrics),
		auth.RequireAdmin(cfg.LandingRoute, cfg.Metrics, cfg.Dispatcher))
	adminGroup.Get("/history", cfg.History.List)

	api := app.Group("/api", cfg.SessionMW.Handle,
		auth.RequireSession(cfg.LoginRoute, cfg.Metrics))
	api.All("/subadmins*", auth.AdminOnly(cfg.Metrics, cfg.Dispatcher), cfg.Proxy.Forward)
	api.All("/*", cfg.Proxy.Forward)
}

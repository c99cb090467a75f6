package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agricoop/magasin-service/internal/api/http/handlers"
	"github.com/agricoop/magasin-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Magasins       *handlers.MagasinHandler
	Stock          *handlers.StockHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
	// PublicRateLimit guards register, login and confirm. Optional.
	PublicRateLimit fiber.Handler
}

// RegisterRoutes wires HTTP routes under /api/v1.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	guard := cfg.AuthMiddleware
	api := app.Group("/api/v1")

	api.Get("/health/live", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	limit := cfg.PublicRateLimit
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}

	authGroup := api.Group("/auth")
	authGroup.Post("/register", limit, cfg.Auth.Register)
	authGroup.Post("/login", limit, cfg.Auth.Login)
	authGroup.Get("/confirm", limit, cfg.Auth.Confirm)
	authGroup.Get("/me", guard.Wrap(cfg.Auth.Me))
	authGroup.Post("/logout", guard.Wrap(cfg.Auth.Logout))

	api.Post("/users", guard.Wrap(cfg.Auth.CreateUser, auth.AdminRoles...))
	api.Get("/metrics", guard.Wrap(cfg.Metrics.Snapshot, auth.AdminRoles...))
	api.Get("/metrics/prometheus", guard.Wrap(cfg.Metrics.Prometheus, auth.AdminRoles...))

	magasins := api.Group("/magasins", guard.Handle)
	magasins.Get("/", cfg.Magasins.List)
	magasins.Post("/", auth.RequireRole(auth.AdminRoles...), cfg.Magasins.Create)
	magasins.Put("/:id", auth.RequireRole(auth.AdminRoles...), cfg.Magasins.Update)
	magasins.Get("/:id/lots", cfg.Stock.ListLots)
	magasins.Post("/:id/lots", auth.RequireRole(auth.StockRoles...), cfg.Stock.Admit)
	magasins.Get("/:id/summary", auth.RequireRole(auth.AuditRoles...), cfg.Stock.Summary)
	magasins.Get("/:id/movements", auth.RequireRole(auth.AuditRoles...), cfg.Stock.ListMovements)

	lots := api.Group("/lots", guard.Handle, auth.RequireRole(auth.StockRoles...))
	lots.Post("/:id/withdrawals", cfg.Stock.Withdraw)
	lots.Post("/:id/transfers", cfg.Stock.Transfer)
}

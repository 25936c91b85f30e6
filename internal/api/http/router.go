package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/salesflow/internal/api/http/handlers"
	"github.com/spec-kit/salesflow/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Leads          *handlers.LeadsHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	signedIn := cfg.AuthMiddleware.RequireAuthenticated()
	adminOnly := cfg.AuthMiddleware.RequireAdmin()

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", signedIn, cfg.Auth.Me)

	users := api.Group("/users", adminOnly)
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Delete("/:id", cfg.Users.Delete)

	api.Get("/leads", signedIn, cfg.Leads.List)
	api.Get("/leads/:id/activities", signedIn, cfg.Leads.Activities)
	api.Get("/leads/:id/reminders", signedIn, cfg.Leads.Reminders)
	api.Get("/team", signedIn, cfg.Leads.Team)
	api.Get("/staff/:id", signedIn, cfg.Leads.Staff)

	if cfg.Metrics != nil {
		api.Get("/metrics", adminOnly, cfg.Metrics.Snapshot)
	}
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/session-auth/internal/api/http/handlers"
	"github.com/spec-kit/session-auth/internal/auth"
	"github.com/spec-kit/session-auth/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Authorizer     *auth.Authorizer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	admin := app.Group("/admin", auth.RequireRoles(cfg.Authorizer, domain.RoleAdmin))
	admin.Get("/dashboard", cfg.Admin.Dashboard)
}

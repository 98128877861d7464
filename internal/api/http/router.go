package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/commerce-auth/internal/api/http/handlers"
	"github.com/spec-kit/commerce-auth/internal/auth"
	"github.com/spec-kit/commerce-auth/internal/config"
	"github.com/spec-kit/commerce-auth/internal/domain"
	"github.com/spec-kit/commerce-auth/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	RateLimit      config.RateLimitConfig
	// MemberRoles may call /me; normally every configured role.
	MemberRoles []string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/api/v1/auth")
	if cfg.RateLimit.Enabled {
		authGroup.Use(RateLimitMiddleware(cfg.RateLimit))
	}

	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/token", cfg.Auth.Token)

	authGroup.Get("/protected", cfg.AuthMiddleware.RequireRoles(domain.RoleAdmin), cfg.Auth.Protected)
	authGroup.Get("/me", cfg.AuthMiddleware.RequireRoles(cfg.MemberRoles...), cfg.Auth.Me)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/audioclean-service/internal/api/http/handlers"
	"github.com/spec-kit/audioclean-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Uploads        *handlers.UploadHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Protected routes carry the gate
// individually so unknown paths still answer 404 rather than 401.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Welcome)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/status", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	gate := cfg.AuthMiddleware.Handle
	app.Get("/protected", gate, handlers.Protected)
	app.Post("/upload", gate, cfg.Uploads.Upload)
	app.Get("/uploads", gate, cfg.Uploads.List)
}

package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-projects/internal/config"
	"github.com/noah-isme/gema-projects/internal/handler"
	"github.com/noah-isme/gema-projects/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	CourseHandler  *handler.CourseHandler
	ProjectHandler *handler.ProjectHandler
	JWTMiddleware  fiber.Handler
	AuthLimiter    fiber.Handler
	UploadDir      string
	HealthProbes   map[string]handler.HealthProbe
}

// Register wires the collaborator routes under /api.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		var guards []fiber.Handler
		if deps.AuthLimiter != nil {
			guards = append(guards, deps.AuthLimiter)
		}
		deps.AuthHandler.Register(api.Group("/auth"), guards...)
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/course", jwtMiddleware))
	}

	if deps.ProjectHandler != nil {
		deps.ProjectHandler.Register(api.Group("/project", jwtMiddleware))
	}

	if deps.UploadDir != "" {
		app.Static("/uploads", deps.UploadDir, fiber.Static{Download: true})
	}
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-projects/internal/middleware"
	"github.com/noah-isme/gema-projects/internal/service"
)

func actorFromContext(c *fiber.Ctx) service.Actor {
	id, role := middleware.Identity(c)
	return service.Actor{ID: id, Role: role}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

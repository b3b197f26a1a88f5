package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Config customises the collaborator middleware chain.
type Config struct {
	// Logger receives access lines for /api requests. Nil disables them.
	Logger *zerolog.Logger
	// AllowOrigins lists the browser origins allowed to call the API. Empty means any.
	AllowOrigins []string
}

// Register installs panic recovery, correlation ids, metrics, access logging
// and CORS, in that order, ahead of every route.
func Register(app *fiber.App, cfg Config) {
	accessLog := zerolog.Nop()
	if cfg.Logger != nil {
		accessLog = cfg.Logger.With().Str("component", "http").Logger()
	}

	origins := "*"
	if len(cfg.AllowOrigins) > 0 {
		origins = strings.Join(cfg.AllowOrigins, ",")
	}

	app.Use(
		recover.New(recover.Config{EnableStackTrace: cfg.Logger != nil}),
		CorrelationID(),
		Observability(accessLog),
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + HeaderCorrelationID,
			AllowMethods:  fiber.MethodGet + "," + fiber.MethodPost + "," + fiber.MethodOptions,
			ExposeHeaders: HeaderCorrelationID,
		}),
	)
}

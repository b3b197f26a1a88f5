package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-projects/internal/config"
	"github.com/noah-isme/gema-projects/internal/utils"
)

const probeTimeout = 2 * time.Second

// HealthProbe checks one backing service of the collaborator.
type HealthProbe func(ctx context.Context) error

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// HealthCheck reports "ok", or "degraded" with a 503 when any probe fails.
func HealthCheck(cfg config.Config, probes map[string]HealthProbe) fiber.Handler {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *fiber.Ctx) error {
		response := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}
		status := fiber.StatusOK

		if len(names) > 0 {
			ctx, cancel := context.WithTimeout(c.UserContext(), probeTimeout)
			defer cancel()

			response.Checks = make(map[string]string, len(names))
			for _, name := range names {
				if err := probes[name](ctx); err != nil {
					response.Checks[name] = err.Error()
					response.Status = "degraded"
					status = fiber.StatusServiceUnavailable
					continue
				}
				response.Checks[name] = "ok"
			}
		}

		return utils.SendJSON(c, status, response)
	}
}

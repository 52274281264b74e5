package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-poem-api/internal/config"
	"github.com/noah-isme/gema-poem-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	Service         string    `json:"service"`
	Environment     string    `json:"environment"`
	DefaultProvider string    `json:"default_provider"`
	Providers       []string  `json:"providers"`
}

// ProviderCatalog lists the evaluation providers the process can reach.
type ProviderCatalog interface {
	Providers() []string
	Resolve(preference string) string
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config, catalog ProviderCatalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Providers:   []string{},
		}

		if catalog != nil {
			payload.Providers = append(payload.Providers, catalog.Providers()...)
			payload.DefaultProvider = catalog.Resolve("")
		}
		if len(payload.Providers) == 0 {
			payload.Status = "degraded"
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

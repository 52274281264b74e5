package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-poem-api/internal/config"
	"github.com/noah-isme/gema-poem-api/internal/handler"
	"github.com/noah-isme/gema-poem-api/internal/middleware"
	"github.com/noah-isme/gema-poem-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler *handler.EvaluationHandler
	PoemHandler       *handler.PoemHandler
	Providers         handler.ProviderCatalog
	// AIRateLimit guards the provider backed routes. Nil disables limiting.
	AIRateLimit fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Providers))

	limit := deps.AIRateLimit
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.Register(api.Group("/ai", limit))
	}

	if deps.PoemHandler != nil {
		poems := api.Group("/poems")
		poems.Post("", limit)
		poems.Put("/:id", limit)
		deps.PoemHandler.Register(poems)
	}
}

// DefaultAIRateLimit builds the limiter used for provider backed routes.
func DefaultAIRateLimit(cfg config.Config) fiber.Handler {
	return middleware.RateLimit("ai", cfg.AIRateLimit, cfg.AIRateWindow)
}

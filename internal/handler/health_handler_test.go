package handler_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/gema-poem-api/internal/config"
	"github.com/noah-isme/gema-poem-api/internal/handler"
	"github.com/noah-isme/gema-poem-api/pkg/ai"
)

type healthPayload struct {
	Success bool                   `json:"success"`
	Data    handler.HealthResponse `json:"data"`
}

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{
		AppName: "GEMA Poem API",
		AppEnv:  "test",
	}
	gateway := ai.NewGateway(ai.GatewayConfig{DefaultProvider: ai.ProviderGPT}, zerolog.Nop(), &providerStub{id: ai.ProviderGemini}, &providerStub{id: ai.ProviderGPT})

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg, gateway.Router()))

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload healthPayload
	err = json.NewDecoder(resp.Body).Decode(&payload)
	assert.NoError(t, err)
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, cfg.AppName, payload.Data.Service)
	assert.Equal(t, cfg.AppEnv, payload.Data.Environment)
	assert.Equal(t, ai.ProviderGPT, payload.Data.DefaultProvider)
	assert.ElementsMatch(t, []string{ai.ProviderGemini, ai.ProviderGPT}, payload.Data.Providers)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}

func TestHealthCheckWithoutProviders(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(config.Config{AppName: "GEMA Poem API"}, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	assert.NoError(t, err)

	var payload healthPayload
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "degraded", payload.Data.Status)
	assert.Empty(t, payload.Data.Providers)
}

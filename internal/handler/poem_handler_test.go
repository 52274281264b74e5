package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-poem-api/internal/dto"
	"github.com/noah-isme/gema-poem-api/internal/handler"
	"github.com/noah-isme/gema-poem-api/internal/models"
	"github.com/noah-isme/gema-poem-api/internal/repository"
	"github.com/noah-isme/gema-poem-api/internal/service"
	"github.com/noah-isme/gema-poem-api/internal/utils"
	"github.com/noah-isme/gema-poem-api/pkg/ai"
)

type providerStub struct {
	id  string
	raw string
	err error

	mu      sync.Mutex
	prompts []string
}

func (p *providerStub) Descriptor() ai.ProviderDescriptor {
	return ai.ProviderDescriptor{ID: p.id}
}

func (p *providerStub) Submit(_ context.Context, request ai.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, request.Prompt)
	if p.err != nil {
		return "", p.err
	}
	return p.raw, nil
}

func (p *providerStub) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Meta     map[string]any  `json:"meta,omitempty"`
	Details  map[string]any  `json:"details,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

func newPoemTestApp(t *testing.T, providers ...ai.ProviderClient) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Poem{}))

	logger := zerolog.New(io.Discard)
	validate := validator.New()
	gateway := ai.NewGateway(ai.GatewayConfig{}, logger, providers...)

	evaluations := service.NewEvaluationService(gateway, gateway.Router(), validate, logger)
	poems := service.NewPoemService(repository.NewPoemRepository(db), gateway, validate, service.PoemServiceOptions{Resolver: gateway.Router()}, logger)

	app := fiber.New()
	api := app.Group("/api/v1")
	handler.NewEvaluationHandler(evaluations, logger).Register(api.Group("/ai"))
	handler.NewPoemHandler(poems, logger).Register(api.Group("/poems"))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

func TestPoemHandlerCreateAndGet(t *testing.T) {
	gemini := &providerStub{id: ai.ProviderGemini, raw: `{"score": 72, "emotion": "warm", "comment": "gentle", "titles": ["Ember"], "tags": ["hearth"]}`}
	app := newPoemTestApp(t, gemini)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/poems", dto.PoemRequest{Poem: "embers in the hearth"}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Empty(t, resp.Header.Get(utils.DegradedHeader))
	require.True(t, body.Success)

	var saved dto.PoemSaveResponse
	require.NoError(t, json.Unmarshal(body.Data, &saved))
	require.True(t, saved.Evaluated)
	require.Equal(t, models.PoemStatusEvaluated, saved.Poem.Status)
	require.Equal(t, 72, *saved.Poem.Score)
	require.Equal(t, []string{"Ember"}, saved.TitleCandidates)
	require.Equal(t, ai.ProviderGemini, saved.Poem.Provider)

	resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/poems/%d", saved.Poem.ID), nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var fetched dto.PoemResponse
	require.NoError(t, json.Unmarshal(body.Data, &fetched))
	require.Equal(t, "embers in the hearth", fetched.Poem)
	require.Equal(t, []string{"hearth"}, fetched.Tags)
}

func TestPoemHandlerUpdateIdenticalAvoidsProviderCall(t *testing.T) {
	gemini := &providerStub{id: ai.ProviderGemini, raw: `{"score": 64, "emotion": "cool", "comment": "still water", "tags": ["lake"]}`}
	app := newPoemTestApp(t, gemini)

	request := dto.PoemRequest{Title: "Lake", Poem: "still water under ice"}
	_, body := doJSON(t, app, http.MethodPost, "/api/v1/poems", request, nil)

	var created dto.PoemSaveResponse
	require.NoError(t, json.Unmarshal(body.Data, &created))

	gemini.raw = `{"score": 3, "emotion": "dark"}`
	resp, body := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/poems/%d", created.Poem.ID), request, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, gemini.calls())

	var updated dto.PoemSaveResponse
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	require.False(t, updated.Evaluated)
	require.Equal(t, models.PoemStatusKept, updated.Poem.Status)
	require.Equal(t, created.Poem.Score, updated.Poem.Score)
	require.Equal(t, created.Poem.Emotion, updated.Poem.Emotion)
	require.Equal(t, created.Poem.Comment, updated.Poem.Comment)
	require.Equal(t, created.Poem.Tags, updated.Poem.Tags)
}

func TestPoemHandlerProviderFailureIsDegraded(t *testing.T) {
	gemini := &providerStub{id: ai.ProviderGemini, err: errors.New("quota exceeded")}
	app := newPoemTestApp(t, gemini)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/poems", dto.PoemRequest{Poem: "embers"}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "provider_failed", resp.Header.Get(utils.DegradedHeader))
	require.True(t, body.Success)
	require.Equal(t, models.PoemStatusUnavailable, body.Message)
	require.NotEmpty(t, body.Warnings)

	var saved dto.PoemSaveResponse
	require.NoError(t, json.Unmarshal(body.Data, &saved))
	require.Nil(t, saved.Poem.Score)
	require.Equal(t, "light", saved.Poem.Emotion)
}

func TestPoemHandlerUsesProviderHeader(t *testing.T) {
	gemini := &providerStub{id: ai.ProviderGemini, raw: `{"score": 10}`}
	gpt := &providerStub{id: ai.ProviderGPT, raw: `{"score": 90}`}
	app := newPoemTestApp(t, gemini, gpt)

	_, body := doJSON(t, app, http.MethodPost, "/api/v1/poems", dto.PoemRequest{Poem: "embers"}, map[string]string{"X-AI-Provider": "GPT"})

	var saved dto.PoemSaveResponse
	require.NoError(t, json.Unmarshal(body.Data, &saved))
	require.Equal(t, 90, *saved.Poem.Score)
	require.Equal(t, ai.ProviderGPT, saved.Poem.Provider)
	require.Zero(t, gemini.calls())
}

func TestPoemHandlerValidation(t *testing.T) {
	gemini := &providerStub{id: ai.ProviderGemini, raw: `{"score": 10}`}
	app := newPoemTestApp(t, gemini)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/poems", dto.PoemRequest{Title: "Only a title"}, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.False(t, body.Success)
	require.Equal(t, "required", body.Details["poem"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/poems", dto.PoemRequest{Poem: "   "}, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, ai.ErrPrecondition.Error(), body.Message)
	require.Zero(t, gemini.calls())

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/poems/abc", nil, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/poems?order=sideways", nil, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPoemHandlerListAndDelete(t *testing.T) {
	gemini := &providerStub{id: ai.ProviderGemini, raw: `{"score": 50, "tags": ["sea"]}`}
	app := newPoemTestApp(t, gemini)

	for _, text := range []string{"waves at night", "salt on the stones"} {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/poems", dto.PoemRequest{Poem: text}, nil)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/poems?order=asc", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var items []dto.PoemResponse
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 2)
	require.Equal(t, "waves at night", items[0].Poem)
	require.Equal(t, float64(2), body.Meta["count"])

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/poems?q=salt", nil, nil)
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 1)

	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/poems/%d", items[0].ID), nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/poems/%d", items[0].ID), nil, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "poem not found", body.Message)
}

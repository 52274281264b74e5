package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIClient implements ProviderClient against the OpenAI chat completion API.
type OpenAIClient struct {
	client     *openai.Client
	descriptor ProviderDescriptor
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewOpenAIClient builds the "gpt" provider.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = 0.9
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		descriptor: ProviderDescriptor{
			ID: ProviderGPT,
			Endpoint: EndpointConfig{
				APIKey:  cfg.APIKey,
				Model:   cfg.Model,
				BaseURL: config.BaseURL,
			},
			Generation: GenerationParams{
				Temperature:     cfg.Temperature,
				MaxOutputTokens: cfg.MaxTokens,
				JSONOutput:      true,
			},
		},
		tracer: otel.Tracer("github.com/noah-isme/gema-poem-api/pkg/ai/openai"),
		logger: logger.With().Str("provider", ProviderGPT).Logger(),
	}, nil
}

// Descriptor returns the static provider configuration.
func (c *OpenAIClient) Descriptor() ProviderDescriptor {
	return c.descriptor
}

// Submit sends the request to OpenAI and returns the first choice's content.
func (c *OpenAIClient) Submit(parent context.Context, request Request) (raw string, err error) {
	ctx, span := c.tracer.Start(parent, "openai.submit", trace.WithAttributes(
		attribute.String("model", c.descriptor.Endpoint.Model),
		attribute.String("task", string(request.Task)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observeCall(c.descriptor, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	chat := openai.ChatCompletionRequest{
		Model:       c.descriptor.Endpoint.Model,
		MaxTokens:   request.Generation.MaxOutputTokens,
		Temperature: request.Generation.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: request.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: request.Prompt,
			},
		},
	}
	if request.Generation.JSONOutput {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Warn().Int("status", apiErr.HTTPStatusCode).Msg("openai returned an error status")
		}
		return "", providerFailure(ProviderGPT, err)
	}

	if len(resp.Choices) == 0 {
		return "", providerFailure(ProviderGPT, errors.New("no choices returned"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", providerFailure(ProviderGPT, errors.New("empty response"))
	}

	return content, nil
}

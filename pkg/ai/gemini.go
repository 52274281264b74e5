package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

// GeminiConfig defines configuration options for the Gemini provider.
type GeminiConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	MaxOutputTokens int
	Temperature     float32
	// SafetyThreshold defaults to BLOCK_NONE so poems touching dark themes are
	// not refused.
	SafetyThreshold string
	Logger          zerolog.Logger
}

var geminiHarmCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// GeminiClient implements ProviderClient against the Google Gemini API.
type GeminiClient struct {
	client     *genai.Client
	descriptor ProviderDescriptor
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewGeminiClient builds the "gemini" provider.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = 0.9
	}

	if cfg.SafetyThreshold == "" {
		cfg.SafetyThreshold = string(genai.HarmBlockThresholdBlockNone)
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		descriptor: ProviderDescriptor{
			ID: ProviderGemini,
			Endpoint: EndpointConfig{
				APIKey:  cfg.APIKey,
				Model:   cfg.Model,
				BaseURL: cfg.BaseURL,
			},
			Generation: GenerationParams{
				Temperature:     cfg.Temperature,
				MaxOutputTokens: cfg.MaxOutputTokens,
				JSONOutput:      true,
				SafetyThreshold: cfg.SafetyThreshold,
			},
		},
		tracer: otel.Tracer("github.com/noah-isme/gema-poem-api/pkg/ai/gemini"),
		logger: logger.With().Str("provider", ProviderGemini).Logger(),
	}, nil
}

// Descriptor returns the static provider configuration.
func (c *GeminiClient) Descriptor() ProviderDescriptor {
	return c.descriptor
}

// Submit sends the request to Gemini and returns the concatenated candidate text.
func (c *GeminiClient) Submit(parent context.Context, request Request) (raw string, err error) {
	ctx, span := c.tracer.Start(parent, "gemini.submit", trace.WithAttributes(
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

	resp, err := c.client.Models.GenerateContent(ctx,
		c.descriptor.Endpoint.Model,
		genai.Text(request.Prompt),
		c.generateConfig(request),
	)
	if err != nil {
		return "", providerFailure(ProviderGemini, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", providerFailure(ProviderGemini, errors.New("no candidates returned"))
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		c.logger.Debug().Str("finish_reason", string(resp.Candidates[0].FinishReason)).Msg("gemini returned no text")
		return "", providerFailure(ProviderGemini, errors.New("empty response"))
	}

	return content, nil
}

func (c *GeminiClient) generateConfig(request Request) *genai.GenerateContentConfig {
	params := request.Generation
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(params.Temperature),
	}
	if request.System != "" {
		config.SystemInstruction = genai.NewContentFromText(request.System, genai.RoleUser)
	}
	if params.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(params.MaxOutputTokens)
	}
	if params.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}
	if params.SafetyThreshold != "" {
		threshold := genai.HarmBlockThreshold(params.SafetyThreshold)
		for _, category := range geminiHarmCategories {
			config.SafetySettings = append(config.SafetySettings, &genai.SafetySetting{
				Category:  category,
				Threshold: threshold,
			})
		}
	}
	return config
}

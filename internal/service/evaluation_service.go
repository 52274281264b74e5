package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-poem-api/internal/dto"
	"github.com/noah-isme/gema-poem-api/internal/middleware"
	"github.com/noah-isme/gema-poem-api/pkg/ai"
)

// EvaluationResult carries an evaluation together with how it was produced.
type EvaluationResult struct {
	Evaluation dto.EvaluationResponse
	Provider   string
	Degraded   bool
	Warning    string
}

// TitlesResult carries title suggestions together with how they were produced.
type TitlesResult struct {
	Titles   dto.TitlesResponse
	Provider string
	Degraded bool
	Warning  string
}

// EvaluationService exposes the gateway to the HTTP layer without persistence.
type EvaluationService interface {
	Evaluate(ctx context.Context, payload dto.PoemRequest, provider string) (EvaluationResult, error)
	SuggestTitles(ctx context.Context, payload dto.PoemRequest, provider string) (TitlesResult, error)
}

// ProviderResolver reports which provider a preference resolves to.
type ProviderResolver interface {
	Resolve(preference string) string
}

type evaluationService struct {
	evaluator ai.Evaluator
	resolver  ProviderResolver
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewEvaluationService constructs an evaluation service. The resolver may be nil.
func NewEvaluationService(evaluator ai.Evaluator, resolver ProviderResolver, validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		evaluator: evaluator,
		resolver:  resolver,
		validator: validate,
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-poem-api/internal/service/evaluation"),
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, payload dto.PoemRequest, provider string) (EvaluationResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return EvaluationResult{}, err
	}

	resolved := s.resolve(provider)
	spanCtx, span := s.tracer.Start(ctx, "evaluation.evaluate", trace.WithAttributes(attribute.String("ai.provider", resolved)))
	defer span.End()

	evaluation, err := s.evaluator.Evaluate(spanCtx, payload.Draft(), provider)
	result := EvaluationResult{Evaluation: dto.NewEvaluationResponse(evaluation), Provider: resolved}
	if err != nil {
		if errors.Is(err, ai.ErrPrecondition) {
			return EvaluationResult{}, err
		}
		span.RecordError(err)
		s.logger.Warn().Err(err).Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).Str("provider", resolved).Msg("returning degraded evaluation")
		result.Degraded = true
		result.Warning = degradedWarning(resolved)
	}

	return result, nil
}

func (s *evaluationService) SuggestTitles(ctx context.Context, payload dto.PoemRequest, provider string) (TitlesResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return TitlesResult{}, err
	}

	resolved := s.resolve(provider)
	spanCtx, span := s.tracer.Start(ctx, "evaluation.titles", trace.WithAttributes(attribute.String("ai.provider", resolved)))
	defer span.End()

	titles, err := s.evaluator.SuggestTitles(spanCtx, payload.Draft(), provider)
	if titles == nil {
		titles = []string{}
	}
	result := TitlesResult{Titles: dto.TitlesResponse{Titles: titles}, Provider: resolved}
	if err != nil {
		if errors.Is(err, ai.ErrPrecondition) {
			return TitlesResult{}, err
		}
		span.RecordError(err)
		s.logger.Warn().Err(err).Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).Str("provider", resolved).Msg("returning empty title suggestions")
		result.Degraded = true
		result.Warning = degradedWarning(resolved)
	}

	return result, nil
}

func (s *evaluationService) resolve(provider string) string {
	if s.resolver == nil {
		return provider
	}
	return s.resolver.Resolve(provider)
}

func degradedWarning(provider string) string {
	if provider == "" {
		return "no evaluation provider is configured"
	}
	return fmt.Sprintf("provider %s did not return an evaluation", provider)
}

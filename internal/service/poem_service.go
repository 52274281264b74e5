package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-poem-api/internal/dto"
	"github.com/noah-isme/gema-poem-api/internal/middleware"
	"github.com/noah-isme/gema-poem-api/internal/models"
	"github.com/noah-isme/gema-poem-api/internal/observability"
	"github.com/noah-isme/gema-poem-api/internal/repository"
	"github.com/noah-isme/gema-poem-api/pkg/ai"
)

const poemListCachePrefix = "poems:list:"

var (
	// ErrPoemNotFound indicates the requested poem does not exist.
	ErrPoemNotFound = errors.New("poem not found")
)

// PoemService persists poems and decides when they need a fresh evaluation.
type PoemService interface {
	Create(ctx context.Context, payload dto.PoemRequest, provider string) (dto.PoemSaveResponse, error)
	Update(ctx context.Context, id uint, payload dto.PoemRequest, provider string) (dto.PoemSaveResponse, error)
	Get(ctx context.Context, id uint) (dto.PoemResponse, error)
	List(ctx context.Context, query dto.PoemListQuery) (dto.PoemListResponse, error)
	Delete(ctx context.Context, id uint) error
}

type poemService struct {
	repo      repository.PoemRepository
	evaluator ai.Evaluator
	resolver  ProviderResolver
	events    PoemEventPublisher
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// PoemServiceOptions groups the optional collaborators of the poem service.
type PoemServiceOptions struct {
	Resolver ProviderResolver
	Events   PoemEventPublisher
	Cache    *redis.Client
	CacheTTL time.Duration
}

// NewPoemService constructs a poem service.
func NewPoemService(repo repository.PoemRepository, evaluator ai.Evaluator, validate *validator.Validate, opts PoemServiceOptions, logger zerolog.Logger) PoemService {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &poemService{
		repo:      repo,
		evaluator: evaluator,
		resolver:  opts.Resolver,
		events:    opts.Events,
		cache:     opts.Cache,
		cacheTTL:  ttl,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "poem_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-poem-api/internal/service/poem"),
	}
}

func (s *poemService) Create(ctx context.Context, payload dto.PoemRequest, provider string) (dto.PoemSaveResponse, error) {
	payload, err := s.prepare(payload)
	if err != nil {
		return dto.PoemSaveResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "poems.create", trace.WithAttributes(attribute.String("ai.provider", provider)))
	defer span.End()

	decision := ai.DecideReEvaluation(nil, payload.Poem)
	evaluation, degraded, err := s.evaluate(spanCtx, payload, provider)
	if err != nil {
		return dto.PoemSaveResponse{}, err
	}

	poem := models.Poem{
		Title: payload.Title,
		Body:  payload.Poem,
	}
	s.applyEvaluation(&poem, evaluation, payload.Tags, provider)
	poem.Status = models.PoemStatusEvaluated
	if degraded {
		poem.Status = models.PoemStatusUnavailable
	}

	if err := s.repo.Create(spanCtx, &poem); err != nil {
		span.RecordError(err)
		return dto.PoemSaveResponse{}, fmt.Errorf("create poem: %w", err)
	}

	response := s.finish(spanCtx, poem, decision, degraded)
	if poem.Title == "" {
		response.TitleCandidates = append(response.TitleCandidates, poem.Titles...)
	}
	return response, nil
}

func (s *poemService) Update(ctx context.Context, id uint, payload dto.PoemRequest, provider string) (dto.PoemSaveResponse, error) {
	payload, err := s.prepare(payload)
	if err != nil {
		return dto.PoemSaveResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "poems.update", trace.WithAttributes(
		attribute.Int("poem.id", int(id)),
		attribute.String("ai.provider", provider),
	))
	defer span.End()

	poem, err := s.repo.GetByID(spanCtx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PoemSaveResponse{}, ErrPoemNotFound
		}
		span.RecordError(err)
		return dto.PoemSaveResponse{}, err
	}

	previous := poem.Body
	decision := ai.DecideReEvaluation(&previous, payload.Poem)
	// A poem saved while the provider was down has nothing worth keeping.
	if poem.Status == models.PoemStatusUnavailable {
		decision.Needed = true
	}
	span.SetAttributes(
		attribute.Bool("poem.reevaluate", decision.Needed),
		attribute.Float64("poem.distance_ratio", decision.DistanceRatio),
	)

	poem.Title = payload.Title
	poem.Body = payload.Poem

	degraded := false
	if decision.Needed {
		var evaluation ai.Evaluation
		evaluation, degraded, err = s.evaluate(spanCtx, payload, provider)
		if err != nil {
			return dto.PoemSaveResponse{}, err
		}
		s.applyEvaluation(&poem, evaluation, payload.Tags, provider)
		poem.Status = models.PoemStatusReEvaluated
		if degraded {
			poem.Status = models.PoemStatusUnavailable
		}
	} else {
		poem.Status = models.PoemStatusKept
	}

	if err := s.repo.Update(spanCtx, &poem); err != nil {
		span.RecordError(err)
		return dto.PoemSaveResponse{}, fmt.Errorf("update poem: %w", err)
	}

	return s.finish(spanCtx, poem, decision, degraded), nil
}

func (s *poemService) Get(ctx context.Context, id uint) (dto.PoemResponse, error) {
	poem, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PoemResponse{}, ErrPoemNotFound
		}
		return dto.PoemResponse{}, err
	}
	return dto.NewPoemResponse(poem), nil
}

func (s *poemService) List(ctx context.Context, query dto.PoemListQuery) (dto.PoemListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.PoemListResponse{}, err
	}

	filter := repository.PoemFilter{
		Search: strings.TrimSpace(query.Query),
		Tag:    strings.TrimSpace(query.Tag),
		Order:  strings.ToLower(query.Order),
	}
	if filter.Order == "" {
		filter.Order = "desc"
	}

	cacheable := s.cache != nil && filter.Search == "" && filter.Tag == ""
	cacheKey := poemListCachePrefix + filter.Order

	if cacheable {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var items []dto.PoemResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &items); unmarshalErr == nil {
				observability.PoemCacheLookups().WithLabelValues("hit").Inc()
				return dto.PoemListResponse{Items: items, CacheHit: true}, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read poem list cache")
		}
		observability.PoemCacheLookups().WithLabelValues("miss").Inc()
	}

	poems, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.PoemListResponse{}, err
	}

	items := dto.NewPoemResponseSlice(poems)
	if cacheable {
		if payload, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store poem list cache")
			}
		}
	}

	return dto.PoemListResponse{Items: items}, nil
}

func (s *poemService) Delete(ctx context.Context, id uint) error {
	spanCtx, span := s.tracer.Start(ctx, "poems.delete", trace.WithAttributes(attribute.Int("poem.id", int(id))))
	defer span.End()

	if err := s.repo.Delete(spanCtx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPoemNotFound
		}
		span.RecordError(err)
		return err
	}

	s.invalidateList(spanCtx)
	s.publish(spanCtx, PoemEvent{Type: PoemEventDeleted, Poem: dto.PoemResponse{ID: id}})
	return nil
}

// prepare validates the payload and strips markup from user supplied labels.
func (s *poemService) prepare(payload dto.PoemRequest) (dto.PoemRequest, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PoemRequest{}, err
	}
	if strings.TrimSpace(payload.Poem) == "" {
		return dto.PoemRequest{}, ai.ErrPrecondition
	}

	payload.Title = strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))

	tags := make([]string, 0, len(payload.Tags))
	for _, tag := range payload.Tags {
		clean := strings.TrimSpace(s.sanitizer.Sanitize(tag))
		if clean != "" {
			tags = append(tags, clean)
		}
	}
	payload.Tags = tags

	return payload, nil
}

func (s *poemService) evaluate(ctx context.Context, payload dto.PoemRequest, provider string) (ai.Evaluation, bool, error) {
	evaluation, err := s.evaluator.Evaluate(ctx, payload.Draft(), provider)
	if err == nil {
		return evaluation, false, nil
	}
	if errors.Is(err, ai.ErrPrecondition) {
		return ai.Evaluation{}, false, err
	}

	s.logger.Warn().
		Err(err).
		Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).
		Str("provider", provider).
		Msg("saving poem with degraded evaluation")
	return evaluation, true, nil
}

func (s *poemService) applyEvaluation(poem *models.Poem, evaluation ai.Evaluation, userTags []string, provider string) {
	poem.Score = evaluation.Score
	poem.Emotion = string(evaluation.Emotion)
	poem.Comment = evaluation.Comment
	poem.Titles = append([]string{}, evaluation.Titles...)

	tags := evaluation.Tags
	if len(tags) == 0 {
		tags = userTags
	}
	poem.Tags = append([]string{}, tags...)

	poem.Provider = provider
	if s.resolver != nil {
		poem.Provider = s.resolver.Resolve(provider)
	}
}

func (s *poemService) finish(ctx context.Context, poem models.Poem, decision ai.ReEvaluationDecision, degraded bool) dto.PoemSaveResponse {
	observability.PoemDecisions().WithLabelValues(poem.Status).Inc()
	s.logger.Info().
		Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).
		Uint("poem_id", poem.ID).
		Str("status", poem.Status).
		Float64("distance_ratio", decision.DistanceRatio).
		Msg("poem saved")

	response := dto.PoemSaveResponse{
		Poem:            dto.NewPoemResponse(poem),
		Evaluated:       decision.Needed,
		DistanceRatio:   decision.DistanceRatio,
		TitleCandidates: []string{},
		Degraded:        degraded,
	}

	s.invalidateList(ctx)
	if decision.Needed {
		s.publish(ctx, PoemEvent{Type: PoemEventEvaluated, Poem: response.Poem, Evaluated: !degraded})
	}

	return response
}

func (s *poemService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, poemListCachePrefix+"asc", poemListCachePrefix+"desc").Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate poem list cache")
	}
}

func (s *poemService) publish(ctx context.Context, event PoemEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish poem event")
	}
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single provider call when the configuration leaves it unset.
const DefaultTimeout = 30 * time.Second

// ErrNoProvider indicates no provider client is registered at all.
var ErrNoProvider = errors.New("no ai provider configured")

const (
	outcomeOK           = "ok"
	outcomeMalformed    = "malformed"
	outcomeFailed       = "provider_failed"
	outcomePrecondition = "precondition"
)

// Gateway composes routing, prompting, the provider call, extraction and
// normalisation. It holds no per-call state and is safe for concurrent use.
type Gateway struct {
	router  *Router
	timeout time.Duration
	logger  zerolog.Logger
}

// NewGateway builds the facade over the given provider clients.
func NewGateway(cfg GatewayConfig, logger zerolog.Logger, clients ...ProviderClient) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Gateway{
		router:  NewRouter(cfg.DefaultProvider, clients...),
		timeout: timeout,
		logger:  logger.With().Str("component", "ai_gateway").Logger(),
	}
}

// Router exposes the provider router, mainly for diagnostics.
func (g *Gateway) Router() *Router {
	return g.router
}

// Evaluate critiques a draft. ErrPrecondition is returned without a usable
// record. A provider failure returns DegradedEvaluation together with a
// *ProviderCallError so callers may report the evaluation as unavailable. A
// response with no parseable JSON returns DegradedEvaluation and no error.
func (g *Gateway) Evaluate(ctx context.Context, draft Draft, preference string) (Evaluation, error) {
	object, found, err := g.run(ctx, TaskEvaluate, draft, preference)
	if err != nil {
		if errors.Is(err, ErrPrecondition) {
			return Evaluation{}, err
		}
		return DegradedEvaluation(), err
	}
	return Normalize(object, found), nil
}

// SuggestTitles runs the title template and keeps only the titles field.
func (g *Gateway) SuggestTitles(ctx context.Context, draft Draft, preference string) ([]string, error) {
	object, found, err := g.run(ctx, TaskTitles, draft, preference)
	if err != nil {
		if errors.Is(err, ErrPrecondition) {
			return nil, err
		}
		return []string{}, err
	}
	return NormalizeTitles(object, found), nil
}

func (g *Gateway) run(ctx context.Context, task Task, draft Draft, preference string) (map[string]any, bool, error) {
	if strings.TrimSpace(draft.Body) == "" {
		return nil, false, ErrPrecondition
	}

	client, ok := g.router.Select(preference)
	if !ok {
		gatewayOutcomes.WithLabelValues("none", string(task), outcomeFailed).Inc()
		return nil, false, providerFailure("none", ErrNoProvider)
	}
	descriptor := client.Descriptor()
	logger := g.logger.With().Str("provider", descriptor.ID).Str("task", string(task)).Logger()

	request, err := BuildRequest(task, draft, descriptor)
	if err != nil {
		gatewayOutcomes.WithLabelValues(descriptor.ID, string(task), outcomePrecondition).Inc()
		return nil, false, err
	}

	raw, err := g.submit(ctx, client, request)
	if err != nil {
		gatewayOutcomes.WithLabelValues(descriptor.ID, string(task), outcomeFailed).Inc()
		logger.Warn().Err(err).Msg("provider call failed; returning degraded evaluation")
		return nil, false, err
	}

	object, found := ExtractJSON(raw)
	if !found {
		gatewayOutcomes.WithLabelValues(descriptor.ID, string(task), outcomeMalformed).Inc()
		logger.Info().Int("raw_length", len(raw)).Msg("provider response carried no json object")
		return nil, false, nil
	}

	gatewayOutcomes.WithLabelValues(descriptor.ID, string(task), outcomeOK).Inc()
	return object, true, nil
}

func (g *Gateway) submit(parent context.Context, client ProviderClient, request Request) (raw string, err error) {
	id := client.Descriptor().ID
	ctx, cancel := context.WithTimeout(parent, g.timeout)
	defer cancel()

	defer func() {
		if recovered := recover(); recovered != nil {
			raw = ""
			err = providerFailure(id, fmt.Errorf("provider panicked: %v", recovered))
		}
	}()

	raw, err = client.Submit(ctx, request)
	if err != nil {
		var callErr *ProviderCallError
		if !errors.As(err, &callErr) {
			err = providerFailure(id, err)
		}
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", providerFailure(id, errors.New("empty response"))
	}
	return raw, nil
}

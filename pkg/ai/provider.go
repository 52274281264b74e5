package ai

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider identifiers accepted by the router.
const (
	ProviderGemini = "gemini"
	ProviderGPT    = "gpt"

	// DefaultProvider is used when neither the caller nor the configuration
	// names a recognised provider.
	DefaultProvider = ProviderGemini
)

var (
	providerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "provider_duration_seconds",
		Help:      "Duration of generative provider calls",
	}, []string{"provider", "model"})

	providerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "provider_failures_total",
		Help:      "Number of failed generative provider calls",
	}, []string{"provider", "model"})

	gatewayOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "gateway_outcomes_total",
		Help:      "Gateway results by provider, task and outcome",
	}, []string{"provider", "task", "outcome"})
)

// ProviderClient submits a request to exactly one generative-text backend and
// returns its raw text. Every failure is reported as a *ProviderCallError.
type ProviderClient interface {
	Descriptor() ProviderDescriptor
	Submit(ctx context.Context, request Request) (string, error)
}

func observeCall(descriptor ProviderDescriptor, start time.Time, err error) {
	providerDuration.WithLabelValues(descriptor.ID, descriptor.Endpoint.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		providerFailures.WithLabelValues(descriptor.ID, descriptor.Endpoint.Model).Inc()
	}
}

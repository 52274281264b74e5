package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	poemDecisionsTotal   *prometheus.CounterVec
	poemEventsTotal      *prometheus.CounterVec
	poemCacheLookupTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5, 10, 30},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		poemDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poem_evaluation_decisions_total",
			Help: "Outcome of saving a poem: evaluated, re-evaluated, kept or unavailable.",
		}, []string{"status"})

		poemEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poem_events_published_total",
			Help: "Poem events published per transport.",
		}, []string{"transport", "result"})

		poemCacheLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poem_list_cache_lookups_total",
			Help: "Poem list cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, httpErrorsTotal, poemDecisionsTotal, poemEventsTotal, poemCacheLookupTotal)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// PoemDecisions counts evaluation decisions made while saving poems.
func PoemDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return poemDecisionsTotal
}

// PoemEvents counts published poem events.
func PoemEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return poemEventsTotal
}

// PoemCacheLookups counts list cache hits and misses.
func PoemCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return poemCacheLookupTotal
}

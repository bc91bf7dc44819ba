package observability

import (
	"time"

	"github.com/boddenberg/streampool-bff-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
	joinsTotal      *prometheus.CounterVec
	transfersTotal  *prometheus.CounterVec
	searchTotal     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "streampool_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streampool_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streampool_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streampool_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streampool_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		joinsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streampool_group_joins_total",
				Help: "Total group join attempts by outcome.",
			},
			[]string{"status"},
		),
		transfersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streampool_transfers_total",
				Help: "Total wallet transfers by outcome.",
			},
			[]string{"status"},
		),
		searchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streampool_search_total",
				Help: "Total AI-assisted searches by classification path.",
			},
			[]string{"path"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrJoin increments the join counter with an outcome label
// (success, rejected, compensated, error).
func (m *Metrics) IncrJoin(status string) {
	m.joinsTotal.WithLabelValues(status).Inc()
}

// IncrTransfer increments the transfer counter with an outcome label.
func (m *Metrics) IncrTransfer(status string) {
	m.transfersTotal.WithLabelValues(status).Inc()
}

// IncrSearch increments the search counter with a path label
// (classified, fallback).
func (m *Metrics) IncrSearch(path string) {
	m.searchTotal.WithLabelValues(path).Inc()
}

// GetAssistantSnapshot returns a snapshot of assistant-related metrics
// for the GET /v1/metrics/assistant endpoint.
func (m *Metrics) GetAssistantSnapshot() *domain.AssistantMetrics {
	// Prometheus counters expose cumulative values.
	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")
	classified := getCounterValue(m.searchTotal, "classified")
	fallbacks := getCounterValue(m.searchTotal, "fallback")
	totalSearches := classified + fallbacks
	cacheHits := getCounterValue(m.cacheHits, "genres")
	cacheMisses := getCounterValue(m.cacheMisses, "genres")

	totalTokens := promptTokens + completionTokens
	avgTokens := float64(0)
	fallbackRate := float64(0)
	cacheHitRate := float64(0)

	if totalSearches > 0 {
		avgTokens = totalTokens / totalSearches
		fallbackRate = fallbacks / totalSearches
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	// Estimated cost: ~$0.03/1k prompt tokens, ~$0.06/1k completion tokens
	estimatedCost := (promptTokens/1000)*0.03 + (completionTokens/1000)*0.06

	return &domain.AssistantMetrics{
		TotalRequests:       int64(totalSearches),
		ErrorRate:           0,
		FallbackRate:        fallbackRate,
		AvgTokensPerRequest: avgTokens,
		EstimatedCostUsd:    estimatedCost,
		CacheHitRate:        cacheHitRate,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

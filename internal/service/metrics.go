package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Свой реестр, чтобы не тащить метрики из prometheus.DefaultRegistry
	registry = prometheus.NewRegistry()

	aiRequestsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "adventure_ai_requests_total",
			Help: "Total number of requests to the generation backends.",
		},
		[]string{"provider", "model", "status"},
	)
	aiRequestDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adventure_ai_request_duration_seconds",
			Help:    "Histogram of generation request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "model"},
	)
	aiPromptTokens = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adventure_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 10), // 100 .. 1000
		},
		[]string{"provider", "model"},
	)
	aiCompletionTokens = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adventure_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(5, 5, 10), // 5 .. 50
		},
		[]string{"provider", "model"},
	)
	generationFallbacksTotal = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "adventure_generation_fallbacks_total",
			Help: "Number of turns that needed the fallback backend.",
		},
	)
	generationFailuresTotal = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "adventure_generation_failures_total",
			Help: "Number of turns where both backends failed.",
		},
	)
)

// MetricsHandler отдает метрики генерации в формате Prometheus.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Registry возвращает реестр метрик генерации.
func Registry() *prometheus.Registry {
	return registry
}

func observeUsage(provider, model string, usage UsageInfo) {
	if usage.TotalTokens <= 0 {
		return
	}
	labels := prometheus.Labels{"provider": provider, "model": model}
	aiPromptTokens.With(labels).Observe(float64(usage.PromptTokens))
	aiCompletionTokens.With(labels).Observe(float64(usage.CompletionTokens))
}

package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the pipeline.
type Metrics struct {
	// Chat metrics
	ChatRequests       prometheus.Counter
	ChatRequestLatency prometheus.Histogram
	ChatErrors         *prometheus.CounterVec

	// Language model call metrics, labeled by cost tier
	LLMCalls  *prometheus.CounterVec
	LLMErrors prometheus.Counter

	// Response cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Extraction outcomes by confidence level
	Extractions *prometheus.CounterVec

	// Suggestion classifier overrides by rule name
	SuggestionOverrides *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		ChatRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auracoach_chat_requests_total",
			Help: "Total number of chat turns processed",
		}),

		ChatRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "auracoach_chat_request_duration_seconds",
			Help:    "Chat turn latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for LLM responses
		}),

		ChatErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auracoach_chat_errors_total",
			Help: "Total number of chat errors by type",
		}, []string{"error_type"}),

		LLMCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auracoach_llm_calls_total",
			Help: "Total number of language model invocations by cost tier",
		}, []string{"tier"}),

		LLMErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auracoach_llm_errors_total",
			Help: "Total number of failed language model invocations",
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auracoach_response_cache_hits_total",
			Help: "Total number of response cache hits",
		}),

		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auracoach_response_cache_misses_total",
			Help: "Total number of response cache misses",
		}),

		Extractions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auracoach_extractions_total",
			Help: "Total number of onboarding extractions by confidence",
		}, []string{"confidence"}),

		SuggestionOverrides: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auracoach_suggestion_overrides_total",
			Help: "Total number of suggestions forced to recurring events by red-flag rule",
		}, []string{"rule"}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance, which may be nil when
// metrics were never initialized (unit tests).
func GetMetrics() *Metrics {
	return globalMetrics
}

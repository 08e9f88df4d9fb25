// Package metrics provides Prometheus metrics for the multichat service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "multichat"
)

var (
	// HTTPRequestsTotal counts HTTP requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency, including streamed responses.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	// ActiveSessions tracks fan-out sessions currently streaming.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of fan-out sessions currently streaming",
		},
	)

	// SessionDuration tracks the time from dispatch to the complete frame.
	SessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of fan-out sessions",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	// SessionModels tracks how many models a session fans out to.
	SessionModels = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_models",
			Help:      "Number of models requested per session",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		},
	)

	// ModelStreamsTotal counts per-model outcomes.
	ModelStreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_streams_total",
			Help:      "Total number of per-model streams by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// FirstChunkDuration tracks latency until a model's first visible content.
	FirstChunkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_first_chunk_seconds",
			Help:      "Time until the first content chunk of a model",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider"},
	)

	// ChunksTotal counts content chunks forwarded to clients.
	ChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_chunks_total",
			Help:      "Total number of content chunks forwarded",
		},
		[]string{"provider"},
	)

	// UpstreamErrorsTotal counts upstream failures by kind.
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Total number of upstream failures",
		},
		[]string{"provider", "kind"},
	)

	// MalformedPayloadsTotal counts upstream records skipped because they did not decode.
	MalformedPayloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_malformed_payloads_total",
			Help:      "Total number of upstream payloads skipped as malformed",
		},
		[]string{"provider"},
	)
)

// Upstream failure kinds.
const (
	UpstreamErrorConnect = "connect"
	UpstreamErrorStatus  = "status"
	UpstreamErrorRead    = "read"
)

// RecordRequest records one HTTP request.
func RecordRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SessionStarted marks a session as streaming.
func SessionStarted(models int) {
	ActiveSessions.Inc()
	SessionModels.Observe(float64(models))
}

// SessionFinished records the end of a session.
func SessionFinished(duration time.Duration) {
	ActiveSessions.Dec()
	SessionDuration.Observe(duration.Seconds())
}

// RecordModelOutcome records a model's terminal state and its chunk count.
func RecordModelOutcome(provider, outcome string, chunks int, firstChunk time.Duration) {
	ModelStreamsTotal.WithLabelValues(provider, outcome).Inc()
	if chunks > 0 {
		ChunksTotal.WithLabelValues(provider).Add(float64(chunks))
		FirstChunkDuration.WithLabelValues(provider).Observe(firstChunk.Seconds())
	}
}

// RecordUpstreamError records an upstream failure.
func RecordUpstreamError(provider, kind string) {
	UpstreamErrorsTotal.WithLabelValues(provider, kind).Inc()
}

// RecordMalformedPayload records a skipped upstream payload.
func RecordMalformedPayload(provider string) {
	MalformedPayloadsTotal.WithLabelValues(provider).Inc()
}

// Package metrics exposes Prometheus instrumentation for the engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sessionTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rehearse_session_turns_total",
			Help: "Total number of session advance calls",
		},
		[]string{"status"},
	)

	sessionsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rehearse_sessions_started_total",
			Help: "Total number of sessions started",
		},
	)

	flowPublishesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rehearse_flow_publishes_total",
			Help: "Total number of flow publish attempts",
		},
		[]string{"result"},
	)

	validationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rehearse_validation_failures_total",
			Help: "Total number of failed flow validations",
		},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rehearse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	initOnce sync.Once
)

// Init registers the collectors with the default registry.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			sessionTurnsTotal,
			sessionsStartedTotal,
			flowPublishesTotal,
			validationFailuresTotal,
			httpRequestDuration,
		)
	})
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SessionStarted records a new session.
func SessionStarted() { sessionsStartedTotal.Inc() }

// SessionTurn records an advance call and the resulting session status.
func SessionTurn(status string) { sessionTurnsTotal.WithLabelValues(status).Inc() }

// FlowPublish records a publish attempt ("ok" or "rejected").
func FlowPublish(result string) { flowPublishesTotal.WithLabelValues(result).Inc() }

// ValidationFailure records a failed validation pass.
func ValidationFailure() { validationFailuresTotal.Inc() }

// ObserveHTTP records a served HTTP request duration.
func ObserveHTTP(method, path string, seconds float64) {
	httpRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

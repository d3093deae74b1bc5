// Package metrics exposes Prometheus counters for the interview pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "brand_discovery"

var (
	// modelCalls counts language model round-trips.
	// Labels: provider, outcome (success, error)
	modelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "genai",
		Name:      "calls_total",
		Help:      "Total language model calls by provider and outcome",
	}, []string{"provider", "outcome"})

	// modelLatency measures language model round-trip time.
	// Labels: provider
	modelLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "genai",
		Name:      "latency_seconds",
		Help:      "Language model call latency in seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"provider"})

	// parseFailures counts model replies that could not be used.
	// Labels: kind (parse, schema)
	parseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "flow",
		Name:      "parse_failures_total",
		Help:      "Total model replies rejected by the response parser",
	}, []string{"kind"})

	// rejectedTransitions counts phase changes refused by the state machine.
	// Labels: from, to
	rejectedTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "flow",
		Name:      "rejected_transitions_total",
		Help:      "Total phase transitions rejected by the state machine",
	}, []string{"from", "to"})

	// fallbackResponses counts apology replies returned instead of model output.
	fallbackResponses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "flow",
		Name:      "fallback_responses_total",
		Help:      "Total fallback responses returned to the user",
	})

	// sessions counts session lifecycle events.
	// Labels: event (started, completed)
	sessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "events_total",
		Help:      "Total session lifecycle events",
	}, []string{"event"})
)

// RecordModelCall records one language model round-trip.
func RecordModelCall(provider string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	modelCalls.WithLabelValues(provider, outcome).Inc()
	modelLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordParseFailure records a rejected model reply. kind is "parse" or "schema".
func RecordParseFailure(kind string) {
	parseFailures.WithLabelValues(kind).Inc()
}

// RecordRejectedTransition records a phase change the state machine refused.
func RecordRejectedTransition(from, to string) {
	rejectedTransitions.WithLabelValues(from, to).Inc()
}

// RecordFallback records a fallback response.
func RecordFallback() {
	fallbackResponses.Inc()
}

// RecordSessionStarted records a new session.
func RecordSessionStarted() {
	sessions.WithLabelValues("started").Inc()
}

// RecordSessionCompleted records a finalized session.
func RecordSessionCompleted() {
	sessions.WithLabelValues("completed").Inc()
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics exposes Prometheus collectors for the listing workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "listing_studio"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDropped = "dropped"
)

var (
	// BackendRequests counts calls to the remote backend by operation and outcome
	BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Remote backend calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	// BackendLatency observes remote backend call durations
	BackendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_seconds",
		Help:      "Remote backend call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// VariantFetches counts variant list fetches; dropped means the result arrived for a stale selection
	VariantFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "variant_fetches_total",
		Help:      "Variant list fetches by outcome.",
	}, []string{"outcome"})

	// GenerationItems counts pipeline items by outcome
	GenerationItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generation_items_total",
		Help:      "Generation pipeline items by outcome.",
	}, []string{"outcome"})

	// ActiveSessions tracks open workflow sessions
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Open workflow sessions.",
	})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics declares the Prometheus collectors exposed on /metrics.
//
// Collectors are package-level and registered with the default registry by
// promauto, so any package can record without plumbing a registry through.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mentorlink"

// =============================================================================
// HTTP surface
// =============================================================================

var (
	// HTTPRequests counts served requests.
	// Labels: method, status (numeric code as a string)
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests served by the client",
	}, []string{"method", "status"})

	// HTTPDuration measures request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	// GuardDecisions counts Route Guard outcomes.
	// Labels: required (user, admin, any), outcome (allow, login, home)
	GuardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "guard",
		Name:      "decisions_total",
		Help:      "Route guard decisions by required role and outcome",
	}, []string{"required", "outcome"})
)

// =============================================================================
// Backend gateways
// =============================================================================

var (
	// GatewayRequests counts outbound gateway calls.
	// Labels: gateway (auth, directory, recommendation, review, admin),
	// operation, result (ok, error, network)
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Total backend gateway calls by outcome",
	}, []string{"gateway", "operation", "result"})

	// GatewayDuration measures outbound call latency.
	GatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Backend gateway call latency in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"gateway", "operation"})

	// DirectoryCache counts directory lookups served from cache vs fetched.
	// Labels: result (hit, miss)
	DirectoryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "directory_cache_total",
		Help:      "Directory cache lookups by result",
	}, []string{"result"})
)

// =============================================================================
// Client core
// =============================================================================

var (
	// StaleDiscards counts async results dropped because the state that
	// triggered them has moved on.
	// Labels: source (departments, recommendations, detail)
	StaleDiscards = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "core",
		Name:      "stale_discards_total",
		Help:      "Async results discarded because they no longer match current state",
	}, []string{"source"})

	// Workspaces tracks live view workspaces.
	Workspaces = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "core",
		Name:      "workspaces",
		Help:      "Number of live recommendation workspaces",
	})
)

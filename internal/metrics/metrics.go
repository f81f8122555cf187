// Package metrics provides Prometheus metrics for the map annotation client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRemoteCalls        = "pinmap_remote_calls_total"
	MetricRemoteCallDuration = "pinmap_remote_call_duration_seconds"
	MetricFavoriteRefreshes  = "pinmap_favorite_refreshes_total"
	MetricSessionTransitions = "pinmap_session_transitions_total"
)

// Outcome label values for remote call metrics.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics contains Prometheus metrics for the client's remote calls and
// session transitions. All operations are thread-safe.
type Metrics struct {
	remoteCalls        *prometheus.CounterVec
	remoteCallDuration *prometheus.HistogramVec
	favoriteRefreshes  prometheus.Counter
	sessionTransitions *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		remoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRemoteCalls,
				Help: "Total number of remote point/favorite API calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		remoteCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRemoteCallDuration,
				Help:    "Remote point/favorite API call duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"operation"},
		),
		favoriteRefreshes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricFavoriteRefreshes,
				Help: "Total number of wholesale favorites list refreshes",
			},
		),
		sessionTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSessionTransitions,
				Help: "Total number of edit session state transitions by target state",
			},
			[]string{"to"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.remoteCalls,
		m.remoteCallDuration,
		m.favoriteRefreshes,
		m.sessionTransitions,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRemoteCall records one remote API call.
// operation: the logical operation name (e.g., "list_points", "create_point")
// outcome: OutcomeSuccess or OutcomeError
// duration: call duration in seconds
func (m *Metrics) ObserveRemoteCall(operation, outcome string, duration float64) {
	m.remoteCalls.WithLabelValues(operation, outcome).Inc()
	m.remoteCallDuration.WithLabelValues(operation).Observe(duration)
}

// IncFavoriteRefresh increments the favorites refresh counter.
// Favorites are refetched wholesale after every favorite mutation.
func (m *Metrics) IncFavoriteRefresh() {
	m.favoriteRefreshes.Inc()
}

// IncSessionTransition increments the session transition counter.
// to: the target state name (e.g., "closed", "creating", "editing")
func (m *Metrics) IncSessionTransition(to string) {
	m.sessionTransitions.WithLabelValues(to).Inc()
}

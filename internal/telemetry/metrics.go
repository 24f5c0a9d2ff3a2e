package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for handshake outcomes. One
// Metrics value may be shared by any number of concurrent handshakes.
type Metrics struct {
	HandshakesStarted   prometheus.Counter
	HandshakesCompleted *prometheus.CounterVec // label: resumed ("true"/"false")
	HandshakesFailed    *prometheus.CounterVec // label: state
	AlertsSent          *prometheus.CounterVec // label: alert
	DecodeErrors        *prometheus.CounterVec // label: kind
	HandshakeDuration   prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers the handshake instruments on a fresh
// registry, so multiple Metrics values (e.g. in tests) never collide.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tls12hs"
	}
	reg := prometheus.NewRegistry()

	m := &Metrics{
		HandshakesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_started_total",
			Help:      "Handshakes initiated by this client.",
		}),
		HandshakesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_completed_total",
			Help:      "Handshakes that reached completion.",
		}, []string{"resumed"}),
		HandshakesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_failed_total",
			Help:      "Handshakes aborted with a fatal error, by state.",
		}, []string{"state"}),
		AlertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_sent_total",
			Help:      "Fatal alerts emitted before termination, by description.",
		}, []string{"alert"}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Wire decode failures, by kind.",
		}, []string{"kind"}),
		HandshakeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handshake_duration_seconds",
			Help:      "Wall-clock time from ClientHello to completion.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}

	reg.MustRegister(
		m.HandshakesStarted, m.HandshakesCompleted, m.HandshakesFailed,
		m.AlertsSent, m.DecodeErrors, m.HandshakeDuration,
	)
	m.registry = reg
	return m
}

// Handler returns an http.Handler serving this Metrics value's registry
// in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the backing registry for callers that register
// additional instruments alongside the handshake ones.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ServeMetrics starts an HTTP server exposing m at /metrics.
// Convenience for simple deployments; blocks like http.ListenAndServe.
func ServeMetrics(addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}

// --- Global Metrics ---

var (
	globalMetrics     *Metrics
	globalMetricsOnce sync.Once
	globalMetricsMu   sync.RWMutex
)

// SetMetrics replaces the process-wide Metrics value.
func SetMetrics(m *Metrics) {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	globalMetrics = m
}

// GetMetrics returns the process-wide Metrics value, creating it on first use.
func GetMetrics() *Metrics {
	globalMetricsMu.RLock()
	m := globalMetrics
	globalMetricsMu.RUnlock()
	if m != nil {
		return m
	}
	globalMetricsOnce.Do(func() {
		SetMetrics(NewMetrics(""))
	})
	globalMetricsMu.RLock()
	defer globalMetricsMu.RUnlock()
	return globalMetrics
}

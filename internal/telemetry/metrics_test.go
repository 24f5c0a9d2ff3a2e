package telemetry

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics("test")

	m.HandshakesStarted.Inc()
	m.HandshakesStarted.Inc()
	m.HandshakesCompleted.WithLabelValues("false").Inc()
	m.HandshakesFailed.WithLabelValues("ServerHello").Inc()
	m.AlertsSent.WithLabelValues("handshake_failure").Inc()
	m.DecodeErrors.WithLabelValues("length mismatch").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HandshakesStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandshakesCompleted.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandshakesFailed.WithLabelValues("ServerHello")))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics("test")
	m.HandshakesStarted.Inc()
	m.HandshakeDuration.Observe(0.042)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "test_handshakes_started_total 1")
	assert.Contains(t, body, "test_handshake_duration_seconds_count 1")
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	a := NewMetrics("test")
	b := NewMetrics("test")
	a.HandshakesStarted.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.HandshakesStarted))
}

func TestGetMetricsSingleton(t *testing.T) {
	assert.Same(t, GetMetrics(), GetMetrics())
}

// Package prometheus provides the concrete Prometheus-backed implementation
// of the pkg/metrics instrumentation seam.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/filewire/filewire/pkg/metrics"
)

func init() {
	metrics.RegisterServerMetricsConstructor(NewServerMetrics)
}

// serverMetrics is the Prometheus implementation of metrics.ServerMetrics.
type serverMetrics struct {
	connectionsOpened prometheus.Counter
	connectionsActive prometheus.Gauge
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	bytesServed       *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
}

// NewServerMetrics creates a new Prometheus-backed metrics.ServerMetrics.
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewServerMetrics() metrics.ServerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &serverMetrics{
		connectionsOpened: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filewire_connections_opened_total",
			Help: "Total number of accepted TCP connections.",
		}),
		connectionsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "filewire_connections_active",
			Help: "Number of currently open TCP connections.",
		}),
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "filewire_requests_total",
			Help: "Total number of dispatched requests by command and status.",
		}, []string{"command", "status"}),
		requestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "filewire_request_duration_milliseconds",
			Help: "Duration of dispatched requests in milliseconds.",
			Buckets: []float64{
				0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000,
			},
		}, []string{"command"}),
		bytesServed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "filewire_bytes_served_total",
			Help: "Total bytes written to clients by command.",
		}, []string{"command"}),
		cacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "filewire_cache_lookups_total",
			Help: "Total store cache lookups by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *serverMetrics) ConnectionOpened() {
	m.connectionsOpened.Inc()
	m.connectionsActive.Inc()
}

func (m *serverMetrics) ConnectionClosed() {
	m.connectionsActive.Dec()
}

func (m *serverMetrics) RequestObserved(command string, status int, duration time.Duration) {
	m.requests.WithLabelValues(command, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(command).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *serverMetrics) BytesServed(command string, n int) {
	m.bytesServed.WithLabelValues(command).Add(float64(n))
}

func (m *serverMetrics) CacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

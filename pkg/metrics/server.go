package metrics

import "time"

// ServerMetrics is the instrumentation surface the connection dispatcher
// and command handlers report against. A nil ServerMetrics is always safe
// to call through the package-level helpers below, so callers
// never need to branch on whether metrics are enabled.
type ServerMetrics interface {
	ConnectionOpened()
	ConnectionClosed()
	RequestObserved(command string, status int, duration time.Duration)
	BytesServed(command string, n int)
	CacheLookup(hit bool)
}

// newServerMetrics is installed by pkg/metrics/prometheus at init time.
// The indirection avoids an import cycle (prometheus imports metrics for
// the registry seam; metrics cannot import prometheus back).
var newServerMetrics func() ServerMetrics

// RegisterServerMetricsConstructor is called by pkg/metrics/prometheus's
// init to wire its concrete implementation into NewServerMetrics.
func RegisterServerMetricsConstructor(constructor func() ServerMetrics) {
	newServerMetrics = constructor
}

// NewServerMetrics returns a Prometheus-backed ServerMetrics, or nil if
// metrics are not enabled (InitRegistry was never called).
func NewServerMetrics() ServerMetrics {
	if !IsEnabled() || newServerMetrics == nil {
		return nil
	}
	return newServerMetrics()
}

// ConnectionOpened records a newly accepted connection.
func ConnectionOpened(m ServerMetrics) {
	if m != nil {
		m.ConnectionOpened()
	}
}

// ConnectionClosed records a connection tear-down.
func ConnectionClosed(m ServerMetrics) {
	if m != nil {
		m.ConnectionClosed()
	}
}

// RequestObserved records a dispatched command's outcome and latency.
func RequestObserved(m ServerMetrics, command string, status int, duration time.Duration) {
	if m != nil {
		m.RequestObserved(command, status, duration)
	}
}

// BytesServed records response bytes written for a command.
func BytesServed(m ServerMetrics, command string, n int) {
	if m != nil {
		m.BytesServed(command, n)
	}
}

// CacheLookup records a store-level cache hit or miss.
func CacheLookup(m ServerMetrics, hit bool) {
	if m != nil {
		m.CacheLookup(hit)
	}
}

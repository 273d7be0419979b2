// Package metrics defines the zero-overhead-when-disabled metrics seam used
// by the rest of filewire. Concrete instrumentation lives in
// pkg/metrics/prometheus, which registers itself here at init time to avoid
// an import cycle between the two packages.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	enabled  bool
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection and installs reg as the registry
// that subsequent NewXxx constructors register their collectors against.
// A nil reg gets a fresh prometheus.NewRegistry().
func InitRegistry(reg *prometheus.Registry) *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	registry = reg
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the active registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// reset clears registry state; used only by tests in this package to avoid
// cross-test leakage of global state.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	enabled = false
	registry = nil
}

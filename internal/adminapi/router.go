// Package adminapi provides the admin-facing HTTP sidecar: health checks
// and, when enabled, the Prometheus scrape endpoint. It runs independently
// of the epoll-based TCP reactor that serves the wire protocol itself.
package adminapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/filewire/filewire/internal/logger"
	"github.com/filewire/filewire/pkg/audit"
)

// HealthFunc reports whether the server is ready to serve requests, along
// with a short human-readable reason when it is not.
type HealthFunc func() (ready bool, reason string)

// NewRouter builds the admin HTTP handler.
//
// Routes:
//   - GET /healthz        - liveness/readiness probe
//   - GET /metrics        - Prometheus scrape endpoint (only when reg is non-nil)
//   - GET /audit/recent   - last N audit records (only when auditStore is non-nil)
func NewRouter(health HealthFunc, reg *prometheus.Registry, auditStore *audit.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", healthzHandler(health))

	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	if auditStore != nil {
		r.Get("/audit/recent", auditRecentHandler(auditStore))
	}

	return r
}

func auditRecentHandler(auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		records, err := auditStore.Recent(r.Context(), limit)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(err.Error()))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(records)
	}
}

func healthzHandler(health HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready, reason := true, ""
		if health != nil {
			ready, reason = health()
		}

		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(reason))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Debug("admin request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}

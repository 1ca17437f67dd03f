// Package metrics exposes Prometheus instrumentation for the roster service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics (RED: rate, errors, duration).
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roster_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Import pipeline metrics.
	ImportSessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_import_sessions_started_total",
			Help: "Total number of import wizard sessions started",
		},
	)

	RowsValidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_import_rows_validated_total",
			Help: "Total rows processed by the row validator, by outcome",
		},
		[]string{"outcome"},
	)

	ImportsCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_imports_committed_total",
			Help: "Total number of successful import commits",
		},
	)

	AthletesImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_athletes_imported_total",
			Help: "Total athletes created through CSV import",
		},
	)

	// RateLimitRejects counts requests rejected by the per-IP limiter.
	RateLimitRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_rate_limit_rejects_total",
			Help: "Total number of requests rejected due to rate limiting",
		},
	)
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware instruments HTTP requests with request count and latency.
// Uses the route pattern, not the raw path, to keep label cardinality low.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routePattern returns the chi route pattern for the request, falling back
// to the raw path when the request never matched a route. The pattern is
// resolved after the handler runs, so parameterized routes collapse into a
// single label value.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

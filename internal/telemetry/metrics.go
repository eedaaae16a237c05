// Package telemetry provides application-level observability for the
// marketplace backend.
//
// All metrics are registered against the default Prometheus registry and
// served on the side-channel HTTP server started by main.go:
//
//	GET http://<host>:<SMP_TELEMETRY_METRICS_PORT>/metrics
//
// Default port: 9090. The endpoint is scraped by Prometheus and is not part
// of the Gin router, so it sits outside the API's auth and rate limiting.
//
// HTTP metrics use c.FullPath() (route template such as
// /api/v1/services/:id/approve) rather than the raw URL to prevent unbounded
// label cardinality from user-supplied path segments.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route template, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration is a latency histogram by method and route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Engine metrics.
var (
	// ConsumptionTotal counts consumption validations by resulting status code
	// ("200", "401", "403", "429", "502").
	ConsumptionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumption_validations_total",
			Help: "Total consumption validations, by resulting status code.",
		},
		[]string{"status"},
	)

	// LifecycleTransitionsTotal counts guarded transitions that fired, by audit action.
	LifecycleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_transitions_total",
			Help: "Total lifecycle transitions whose guard passed, by action.",
		},
		[]string{"action"},
	)

	// AuditEntriesTotal counts audit trail appends by action.
	AuditEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total audit trail entries appended, by action.",
		},
		[]string{"action"},
	)

	// AuditAppendFailures counts best-effort audit appends that failed.
	AuditAppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_append_failures_total",
			Help: "Total audit appends that failed and were dropped.",
		},
	)

	// APIKeysExpiredSweepTotal counts keys the expiry sweeper marked expired.
	APIKeysExpiredSweepTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_keys_expired_sweep_total",
			Help: "Total API keys transitioned to expired by the background sweeper.",
		},
	)
)

// Database connection pool metrics, polled every 30s.
var (
	dbOpenConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Number of open database connections (in use + idle).",
	})
	dbInUseConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_in_use_connections",
		Help: "Number of database connections currently in use.",
	})
	dbIdleConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
)

// StartDBStatsCollector begins exporting pool statistics for db. The polling
// goroutine runs for the life of the process.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := db.Stats()
			dbOpenConnections.Set(float64(stats.OpenConnections))
			dbInUseConnections.Set(float64(stats.InUse))
			dbIdleConnections.Set(float64(stats.Idle))
		}
	}()
	slog.Info("database stats collector started")
}

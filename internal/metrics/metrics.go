// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route pattern
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golfmetrics_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "golfmetrics_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// RequestInProgress counts HTTP requests currently being processed
	RequestInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "golfmetrics_http_requests_in_progress",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method"},
	)

	// DatabaseOperationDuration measures repository operation duration
	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "golfmetrics_db_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	ShotsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golfmetrics_shots_recorded_total",
			Help: "Shots created through the API, by shot type",
		},
		[]string{"shot_type"},
	)

	BulkDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golfmetrics_bulk_deleted_total",
			Help: "Rows removed by bulk delete, by entity",
		},
		[]string{"entity"},
	)

	GolfersAssigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "golfmetrics_golfers_assigned_total",
			Help: "Golfers placed into groups by assign_golfers",
		},
	)
)

// RecordDBOperation records the duration of a database operation
func RecordDBOperation(operation string, table string, startTime time.Time) {
	DatabaseOperationDuration.WithLabelValues(operation, table).Observe(time.Since(startTime).Seconds())
}

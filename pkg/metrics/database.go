// Package metrics provides Prometheus metrics recording for the data-access
// layer. This package exists to avoid import cycles between the database and
// store packages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// dbQueryDuration tracks database query duration in seconds
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stocker_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"database", "operation"},
	)

	// dbQueryTotal tracks total database queries
	dbQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocker_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation"},
	)

	// dbQueryErrors tracks database query errors
	dbQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocker_db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"database", "operation"},
	)

	// dbSlowQueries tracks slow database queries
	dbSlowQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocker_db_slow_queries_total",
			Help: "Total number of slow database queries",
		},
		[]string{"database", "operation"},
	)

	// commitDuration tracks unit-of-work commit duration in seconds
	commitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stocker_uow_commit_duration_seconds",
			Help:    "Unit of work commit duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"backend"},
	)

	// commitChanges tracks staged changes flushed per commit
	commitChanges = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stocker_uow_commit_changes",
			Help:    "Number of staged changes flushed per commit",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
		[]string{"backend"},
	)

	// commitErrors tracks failed commits
	commitErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocker_uow_commit_errors_total",
			Help: "Total number of failed unit of work commits",
		},
		[]string{"backend", "reason"},
	)
)

// RecordDBQuery records database query metrics
func RecordDBQuery(database, operation string, duration time.Duration, slowThreshold time.Duration) {
	dbQueryTotal.WithLabelValues(database, operation).Inc()
	dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())

	if duration > slowThreshold {
		dbSlowQueries.WithLabelValues(database, operation).Inc()
	}
}

// RecordDBError records a database query error
func RecordDBError(database, operation string) {
	dbQueryErrors.WithLabelValues(database, operation).Inc()
}

// RecordCommit records a successful unit of work commit
func RecordCommit(backend string, changes int, duration time.Duration) {
	commitDuration.WithLabelValues(backend).Observe(duration.Seconds())
	commitChanges.WithLabelValues(backend).Observe(float64(changes))
}

// RecordCommitError records a failed unit of work commit
func RecordCommitError(backend, reason string) {
	commitErrors.WithLabelValues(backend, reason).Inc()
}

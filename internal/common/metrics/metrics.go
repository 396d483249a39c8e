// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PoolRequestsAdmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pool_requests_admitted_total",
			Help: "Total number of rental requests admitted to the pool",
		},
	)

	PoolRequestsRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pool_requests_removed_total",
			Help: "Total number of rental requests removed from the pool",
		},
		[]string{"reason"},
	)

	MatchesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pool_matches_created_total",
			Help: "Total number of landlord-request matches created",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "pool_sweep_duration_seconds",
			Help: "Duration of the expiration sweep in seconds",
		},
	)

	SweepFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pool_sweep_item_failures_total",
			Help: "Total number of per-request failures during expiration sweeps",
		},
	)

	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pool_cache_operations_total",
			Help: "Cache operations by type and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

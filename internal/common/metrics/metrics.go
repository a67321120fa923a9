// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_sync_runs_completed_total",
			Help: "Total number of completed sync runs",
		},
		[]string{"task_type"},
	)

	SyncRunsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_sync_runs_failed_total",
			Help: "Total number of failed sync runs",
		},
		[]string{"task_type", "error_code"},
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "connector_sync_run_duration_seconds",
			Help: "Duration of sync runs in seconds",
		},
		[]string{"task_type"},
	)

	SyncRunsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "connector_sync_runs_active",
			Help: "Number of sync runs currently in flight",
		},
		[]string{"task_type"},
	)

	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_records_emitted_total",
			Help: "Records written to the warehouse by table",
		},
		[]string{"table"},
	)

	VinFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_vin_fetch_failures_total",
			Help: "Per-VIN fetch failures by error code",
		},
		[]string{"error_code"},
	)
)

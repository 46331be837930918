// Package metrics holds Prometheus instruments that are used across the
// site.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SnapshotsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_snapshots_created_total",
			Help: "Cumulative number of snapshot files written.",
		})

	SnapshotErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_snapshot_errors_total",
			Help: "Cumulative number of failed snapshot writes.",
		})

	SnapshotsPrunedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_snapshots_pruned_total",
			Help: "Cumulative number of snapshot files removed by retention.",
		})

	SnapshotsOnDisk = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_snapshots_on_disk",
			Help: "Number of snapshot files present after the last prune.",
		})

	LastSnapshotTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_last_snapshot_timestamp_seconds",
			Help: "Unix time of the most recent successful snapshot.",
		})

	RestoresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_restores_total",
			Help: "Cumulative number of completed restores.",
		})

	RestoreErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_restore_errors_total",
			Help: "Cumulative number of restores that aborted.",
		})

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_cycle_duration_seconds",
			Help:    "Wall time of one snapshot, prune, and restore cycle.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by method and status class.",
		}, []string{"method", "code"})

	ActivityEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_events_total",
			Help: "Admin activity log entries recorded, by category.",
		}, []string{"category"})

	WebhookErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "discord_webhook_errors_total",
			Help: "Cumulative number of failed Discord webhook deliveries.",
		})
)

func init() {
	prometheus.MustRegister(
		SnapshotsCreatedTotal,
		SnapshotErrorsTotal,
		SnapshotsPrunedTotal,
		SnapshotsOnDisk,
		LastSnapshotTimestamp,
		RestoresTotal,
		RestoreErrorsTotal,
		CycleDuration,
		HTTPRequestsTotal,
		ActivityEventsTotal,
		WebhookErrorsTotal,
	)
}

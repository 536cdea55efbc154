package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counts completed pipeline invocations by outcome.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_etl_runs_total",
			Help: "Total number of pipeline runs by status (SUCCESS/FAILED).",
		},
		[]string{"status"},
	)

	// Counts run failures by the stage that produced them.
	RunFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_etl_run_failures_total",
			Help: "Number of failed pipeline runs by stage.",
		},
		[]string{"stage"},
	)

	RecordsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_etl_records_processed_total",
			Help: "Total number of snapshots upserted across all runs.",
		},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "market_etl_run_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms → ~40s
		},
	)

	NATSPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_publish_errors_total",
			Help: "Number of NATS publish failures",
		},
		[]string{"subject"},
	)
)

// StartServer exposes /metrics on addr in a background goroutine.
func StartServer(addr string) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		http.ListenAndServe(addr, nil) //nolint:errcheck
	}()
}

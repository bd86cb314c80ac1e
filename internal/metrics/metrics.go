package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ledger metrics
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msglog_events_total",
			Help: "Total number of logged events by channel",
		},
		[]string{"channel"},
	)

	HistorySize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "msglog_history_entries",
			Help: "Number of entries currently retained in the history",
		},
	)

	HistoryClears = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "msglog_history_clears_total",
			Help: "Total number of history clear operations",
		},
	)

	// Push metrics
	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "msglog_connected_clients",
			Help: "Number of registered WebSocket clients",
		},
	)

	PushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msglog_pushes_total",
			Help: "Total number of WebSocket pushes by outcome",
		},
		[]string{"outcome"},
	)

	// Persistence metrics
	SnapshotFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "msglog_snapshot_failures_total",
			Help: "Total number of failed state snapshots",
		},
	)

	SnapshotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "msglog_snapshot_duration_seconds",
			Help:    "Time taken to write a state snapshot in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(HistorySize)
	prometheus.MustRegister(HistoryClears)
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(PushesTotal)
	prometheus.MustRegister(SnapshotFailures)
	prometheus.MustRegister(SnapshotDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package observability holds the process-wide Prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "timebuddy"

var (
	mutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "mutations_total",
		Help:      "Activity store mutations by action and outcome.",
	}, []string{"action", "outcome"})

	persistDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "operation_duration_seconds",
		Help:      "Latency of backend load/save/clear calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "op", "outcome"})

	lastPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "last_save_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful save.",
	})

	importRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "csv",
		Name:      "import_rows_total",
		Help:      "CSV rows processed on import by outcome (imported, merged, skipped).",
	}, []string{"outcome"})

	remoteUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "remote",
		Name:      "snapshots_received_total",
		Help:      "Remote document snapshots applied to the local session.",
	})

	authAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Authentication attempts by method and outcome.",
	}, []string{"method", "outcome"})
)

func init() {
	prometheus.MustRegister(
		mutationsTotal,
		persistDuration,
		lastPersistGauge,
		importRowsTotal,
		remoteUpdatesTotal,
		authAttemptsTotal,
	)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordMutation counts one store mutation.
func RecordMutation(action string, err error) {
	mutationsTotal.WithLabelValues(action, outcome(err)).Inc()
}

// ObservePersistence records a backend call that started at start.
func ObservePersistence(backend, op string, start time.Time, err error) {
	persistDuration.WithLabelValues(backend, op, outcome(err)).Observe(time.Since(start).Seconds())
	if err == nil && op == "save" {
		lastPersistGauge.Set(float64(time.Now().Unix()))
	}
}

// RecordImport adds the per-outcome row counts of one CSV import.
func RecordImport(imported, merged, skipped int) {
	importRowsTotal.WithLabelValues("imported").Add(float64(imported))
	importRowsTotal.WithLabelValues("merged").Add(float64(merged))
	importRowsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

func RecordRemoteSnapshot() {
	remoteUpdatesTotal.Inc()
}

// RecordAuth counts one sign-in/sign-up attempt.
func RecordAuth(method string, err error) {
	authAttemptsTotal.WithLabelValues(method, outcome(err)).Inc()
}

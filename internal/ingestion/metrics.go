package ingestion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ingestion throughput and run outcomes.
type Metrics struct {
	RecordsSaved  *prometheus.CounterVec
	RecordsFailed *prometheus.CounterVec
	Runs          *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
}

// NewMetrics registers the ingestion metrics with reg.
// Pass prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RecordsSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imeto_ingestion_records_saved_total",
			Help: "Total number of impact records saved, by scope kind and write outcome",
		}, []string{"scope_kind", "outcome"}),
		RecordsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imeto_ingestion_records_failed_total",
			Help: "Total number of impact records that could not be saved",
		}, []string{"scope_kind"}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imeto_ingestion_runs_total",
			Help: "Total number of finished ingestion runs, by scope kind and final status",
		}, []string{"scope_kind", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imeto_ingestion_run_duration_seconds",
			Help:    "Wall-clock duration of ingestion runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"scope_kind"}),
	}
}

// ObserveSaved records one successful save.
func (m *Metrics) ObserveSaved(scopeKind string, inserted bool) {
	if m == nil {
		return
	}

	outcome := "updated"
	if inserted {
		outcome = "inserted"
	}

	m.RecordsSaved.WithLabelValues(scopeKind, outcome).Inc()
}

// ObserveFailed records one failed save.
func (m *Metrics) ObserveFailed(scopeKind string) {
	if m == nil {
		return
	}

	m.RecordsFailed.WithLabelValues(scopeKind).Inc()
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(scopeKind string, status RunStatus, d time.Duration) {
	if m == nil {
		return
	}

	m.Runs.WithLabelValues(scopeKind, string(status)).Inc()
	m.RunDuration.WithLabelValues(scopeKind).Observe(d.Seconds())
}

package writer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors a Writer reports to. One Metrics
// may be shared by many writers; a registry can back only one Metrics.
type Metrics struct {
	rowsWritten       *prometheus.CounterVec
	heapBytes         *prometheus.GaugeVec
	stageDuration     *prometheus.HistogramVec
	conflictsResolved *prometheus.CounterVec
	referencesCleared *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		rowsWritten: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cilmeta_writer_rows_written_total",
				Help: "Rows encoded into the tables stream",
			},
			[]string{"table"},
		),
		heapBytes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cilmeta_writer_heap_bytes",
				Help: "Size of the last heap built, in bytes",
			},
			[]string{"heap"},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cilmeta_writer_stage_duration_seconds",
				Help:    "Duration of each writer stage",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		conflictsResolved: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cilmeta_writer_conflicts_resolved_total",
				Help: "Conflicting operations settled by the conflict resolver",
			},
			[]string{"table"},
		),
		referencesCleared: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cilmeta_writer_references_cleared_total",
				Help: "References to removed rows or heap entries written as 0",
			},
			[]string{"target"},
		),
	}
}

func (m *Metrics) observeStage(stage string, start time.Time) {
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

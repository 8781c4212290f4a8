package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments import runs. A nil *Metrics records nothing.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	rowsTotal     *prometheus.CounterVec
	warningsTotal *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

// NewMetrics registers the import collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffing",
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Import runs by family and outcome (committed, rolled_back, unauthorized).",
		}, []string{"family", "outcome"}),
		rowsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffing",
			Subsystem: "import",
			Name:      "rows_written_total",
			Help:      "Rows submitted by batched writes, per table. Includes rows of rolled back runs.",
		}, []string{"table"}),
		warningsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffing",
			Subsystem: "import",
			Name:      "warnings_total",
			Help:      "Non-fatal row warnings of committed runs.",
		}, []string{"family"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "staffing",
			Subsystem: "import",
			Name:      "run_duration_seconds",
			Help:      "Wall time of import runs, authorization to commit or rollback.",
			Buckets: []float64{
				0.01, 0.05,
				0.1, 0.25, 0.5,
				1, 2.5, 5, 10, 30,
			},
		}, []string{"family"}),
	}
}

const (
	outcomeCommitted    = "committed"
	outcomeRolledBack   = "rolled_back"
	outcomeUnauthorized = "unauthorized"
)

func (m *Metrics) run(family, outcome string, elapsed time.Duration, warnings int) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(family, outcome).Inc()
	m.runDuration.WithLabelValues(family).Observe(elapsed.Seconds())
	if warnings > 0 {
		m.warningsTotal.WithLabelValues(family).Add(float64(warnings))
	}
}

func (m *Metrics) rowsWritten(table string, n int) {
	if m == nil {
		return
	}
	m.rowsTotal.WithLabelValues(table).Add(float64(n))
}

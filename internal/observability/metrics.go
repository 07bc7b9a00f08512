package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for conversion runs.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec // labels: outcome={success,failure}
	RunFailures   *prometheus.CounterVec // labels: kind={format,range,parse,...}
	RowsRead      prometheus.Counter
	RowsWritten   *prometheus.CounterVec // labels: sink
	SinkErrors    *prometheus.CounterVec // labels: sink
	StageDuration *prometheus.HistogramVec
	LastSuccess   prometheus.Gauge

	// Comparison metrics.
	Comparisons        *prometheus.CounterVec // labels: outcome={aligned,insufficient,failure}
	ObservedPoints     prometheus.Histogram
	ComparisonDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obswell",
			Name:      "runs_total",
			Help:      "Conversion runs by outcome.",
		}, []string{"outcome"}),
		RunFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obswell",
			Name:      "run_failures_total",
			Help:      "Failed conversion runs by error kind.",
		}, []string{"kind"}),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "obswell",
			Name:      "raw_rows_read_total",
			Help:      "Data rows read from observation-well block files.",
		}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obswell",
			Name:      "rows_written_total",
			Help:      "Output rows written by sink.",
		}, []string{"sink"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obswell",
			Name:      "sink_errors_total",
			Help:      "Output sink failures by sink.",
		}, []string{"sink"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "obswell",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "obswell",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful conversion run.",
		}),
		Comparisons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obswell",
			Name:      "comparisons_total",
			Help:      "Observed-versus-simulated comparisons by outcome.",
		}, []string{"outcome"}),
		ObservedPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "obswell",
			Name:      "observed_points",
			Help:      "Points in each observed series.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 5000},
		}),
		ComparisonDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "obswell",
			Name:      "comparison_duration_seconds",
			Help:      "Duration of reading and aligning one comparison.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RunsTotal,
		m.RunFailures,
		m.RowsRead,
		m.RowsWritten,
		m.SinkErrors,
		m.StageDuration,
		m.LastSuccess,
		m.Comparisons,
		m.ObservedPoints,
		m.ComparisonDuration,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewMetricsWithRegistry registers metrics with reg, for callers that
// gather them explicitly.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

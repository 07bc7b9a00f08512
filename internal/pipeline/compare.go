package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/couchcryptid/obswell-etl/internal/domain"
	"github.com/couchcryptid/obswell-etl/internal/observability"
)

// TableReader reads a delimited table written by an earlier run or by a
// monitoring network export.
type TableReader interface {
	ReadTable(ctx context.Context, path string) (domain.Table, error)
}

// CompareJob names one observed station file and the simulated table it
// is checked against.
type CompareJob struct {
	Observed  string
	Simulated string
	Options   domain.AlignOptions
	MinRows   int
}

// Comparer aligns observed and simulated series.
type Comparer struct {
	reader  TableReader
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewComparer creates a Comparer reading both inputs through r.
func NewComparer(r TableReader, logger *slog.Logger, metrics *observability.Metrics) *Comparer {
	return &Comparer{reader: r, logger: logger, metrics: metrics}
}

// Compare reads both tables and aligns them. The returned bool is false
// when the observed series is shorter than job.MinRows; the comparison is
// still returned so callers can report on it.
func (c *Comparer) Compare(ctx context.Context, job CompareJob) (domain.Comparison, bool, error) {
	start := time.Now()
	defer func() {
		c.metrics.ComparisonDuration.Observe(time.Since(start).Seconds())
	}()

	observed, err := c.reader.ReadTable(ctx, job.Observed)
	if err != nil {
		c.metrics.Comparisons.WithLabelValues("failure").Inc()
		return domain.Comparison{}, false, fmt.Errorf("read observed %s: %w", job.Observed, err)
	}
	simulated, err := c.reader.ReadTable(ctx, job.Simulated)
	if err != nil {
		c.metrics.Comparisons.WithLabelValues("failure").Inc()
		return domain.Comparison{}, false, fmt.Errorf("read simulated %s: %w", job.Simulated, err)
	}

	cmp, err := domain.Align(observed, simulated, job.Options)
	if err != nil {
		c.metrics.Comparisons.WithLabelValues("failure").Inc()
		return domain.Comparison{}, false, err
	}
	c.metrics.ObservedPoints.Observe(float64(cmp.Observed.Len()))

	from, to, err := dateSpan(cmp.Observed.X)
	if err != nil {
		c.metrics.Comparisons.WithLabelValues("failure").Inc()
		return domain.Comparison{}, false, fmt.Errorf("observed %s: %w", job.Observed, err)
	}

	if !cmp.Sufficient(job.MinRows) {
		c.metrics.Comparisons.WithLabelValues("insufficient").Inc()
		c.logger.Info("observed series too short, skipping",
			"observed", job.Observed,
			"rows", cmp.Observed.Len(),
			"min_rows", job.MinRows,
			"observed_from", from,
			"observed_to", to,
		)
		return cmp, false, nil
	}

	c.metrics.Comparisons.WithLabelValues("aligned").Inc()
	c.logger.Info("series aligned",
		"observed", job.Observed,
		"observed_from", from,
		"observed_to", to,
		"simulated_series", len(cmp.Simulated),
		"window_min", cmp.Window.Min,
		"window_max", cmp.Window.Max,
	)
	return cmp, true, nil
}

// dateSpan returns the first and last calendar day covered by a series of
// date serials, formatted as YYYY-MM-DD. Both are empty for an empty series.
func dateSpan(serials []float64) (from, to string, err error) {
	if len(serials) == 0 {
		return "", "", nil
	}
	lo, err := domain.FromDateSerial(slices.Min(serials))
	if err != nil {
		return "", "", err
	}
	hi, err := domain.FromDateSerial(slices.Max(serials))
	if err != nil {
		return "", "", err
	}
	return lo.Format(time.DateOnly), hi.Format(time.DateOnly), nil
}

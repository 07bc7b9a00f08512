package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/obswell-etl/internal/domain"
	"github.com/couchcryptid/obswell-etl/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// Extractor reads the raw block table named by input.
type Extractor interface {
	Extract(ctx context.Context, input string) (domain.RawBlockTable, error)
}

// Loader writes a finished batch to one destination.
type Loader interface {
	Load(ctx context.Context, batch domain.Batch) error
}

// Sink pairs a Loader with the name used for it in logs and metrics.
type Sink struct {
	Name   string
	Loader Loader
}

// Job is one conversion run.
type Job struct {
	Input   string
	Zone    string // defaults to the input file stem
	Options Options
}

// Pipeline orchestrates extract, the domain transform chain, and load.
type Pipeline struct {
	extractor Extractor
	sinks     []Sink
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		sinks:     sinks,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil when every sink that can check itself
// reports ready.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	for _, s := range p.sinks {
		checker, ok := s.Loader.(sharedobs.ReadinessChecker)
		if !ok {
			continue
		}
		if err := checker.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("sink %s: %w", s.Name, err)
		}
	}
	return nil
}

// Run extracts job.Input and processes it.
func (p *Pipeline) Run(ctx context.Context, job Job) (domain.Batch, error) {
	p.logger.Info("conversion started", "input", job.Input)

	var raw domain.RawBlockTable
	err := p.stage("extract", func() (err error) {
		raw, err = p.extractor.Extract(ctx, job.Input)
		return err
	})
	if err != nil {
		p.fail(err)
		return domain.Batch{}, fmt.Errorf("extract %s: %w", job.Input, err)
	}
	return p.Process(ctx, raw, job.Zone, job.Options)
}

// Convert parses r as a block file named job.Input and processes it. It
// serves uploads that never touch the filesystem.
func (p *Pipeline) Convert(ctx context.Context, r io.Reader, job Job) (domain.Batch, error) {
	var raw domain.RawBlockTable
	err := p.stage("extract", func() (err error) {
		raw, err = domain.ParseBlocks(r, job.Input)
		return err
	})
	if err != nil {
		p.fail(err)
		return domain.Batch{}, err
	}
	return p.Process(ctx, raw, job.Zone, job.Options)
}

// Process transforms an already parsed block table and hands the result to
// every sink. An empty zone falls back to the stem of raw.Source.
func (p *Pipeline) Process(ctx context.Context, raw domain.RawBlockTable, zone string, opts Options) (domain.Batch, error) {
	if zone == "" {
		zone = domain.ZoneFromPath(raw.Source)
	}
	p.metrics.RowsRead.Add(float64(len(raw.Rows)))
	p.logger.Debug("block table parsed",
		"source", raw.Source,
		"rows", len(raw.Rows),
		"blocks", raw.BlockCount,
		"steps", raw.Steps(),
	)

	table, err := p.Transform(raw, opts)
	if err != nil {
		p.fail(err)
		return domain.Batch{}, err
	}

	batch := domain.NewBatch(zone, table)
	if err := p.load(ctx, batch); err != nil {
		p.fail(err)
		return domain.Batch{}, err
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.Set(float64(batch.ProcessedAt.Unix()))
	p.logger.Info("conversion complete",
		"zone", zone,
		"rows", table.Len(),
		"columns", len(table.Columns),
	)
	return batch, nil
}

// Transform runs the domain chain selected by opts over raw.
func (p *Pipeline) Transform(raw domain.RawBlockTable, opts Options) (domain.Table, error) {
	var t domain.Table
	err := p.stage("reshape", func() (err error) {
		t, err = domain.Reshape(raw, opts.Selection)
		return err
	})
	if err != nil {
		return domain.Table{}, err
	}

	if opts.Depth {
		if err := p.stage("depth", func() (err error) {
			t, err = domain.DeriveDepth(t)
			return err
		}); err != nil {
			return domain.Table{}, err
		}
	}
	if opts.Calendar {
		if err := p.stage("calendar", func() (err error) {
			t, err = domain.ToCalendar(t, opts.Epoch)
			return err
		}); err != nil {
			return domain.Table{}, err
		}
	}
	if opts.Weekly {
		if err := p.stage("weekly", func() (err error) {
			t, err = domain.AggregateWeekly(t, domain.WeeklyOptions{
				DateFormat: opts.DateFormat,
				Logger:     p.logger,
			})
			return err
		}); err != nil {
			return domain.Table{}, err
		}
	}
	return t, nil
}

// load hands batch to every sink. A failing sink does not stop the others;
// all failures are returned together.
func (p *Pipeline) load(ctx context.Context, batch domain.Batch) error {
	var errs []error
	for _, s := range p.sinks {
		err := p.stage("load_"+s.Name, func() error {
			return s.Loader.Load(ctx, batch)
		})
		if err != nil {
			p.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
			p.logger.Error("sink failed", "sink", s.Name, "zone", batch.Zone, "error", err)
			errs = append(errs, fmt.Errorf("load %s: %w", s.Name, err))
			continue
		}
		p.metrics.RowsWritten.WithLabelValues(s.Name).Add(float64(batch.Table.Len()))
	}
	return errors.Join(errs...)
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

func (p *Pipeline) fail(err error) {
	kind := ErrorKind(err)
	p.metrics.RunsTotal.WithLabelValues("failure").Inc()
	p.metrics.RunFailures.WithLabelValues(kind).Inc()
	p.logger.Error("conversion failed", "kind", kind, "error", err)
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{domain.ErrFormat, "format"},
	{domain.ErrRange, "range"},
	{domain.ErrParse, "parse"},
	{domain.ErrLengthMismatch, "length_mismatch"},
	{domain.ErrMissingField, "missing_field"},
	{domain.ErrTypeMismatch, "type_mismatch"},
	{domain.ErrValue, "value"},
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "timeout"},
}

// ErrorKind classifies err by the domain sentinel it wraps, for metric
// labels. Errors outside the domain are "io".
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "io"
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/obswell-etl/internal/adapter/blockfile"
	kafkaadapter "github.com/couchcryptid/obswell-etl/internal/adapter/kafka"
	"github.com/couchcryptid/obswell-etl/internal/adapter/tecplot"
	"github.com/couchcryptid/obswell-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/obswell-etl/internal/config"
	"github.com/couchcryptid/obswell-etl/internal/observability"
	"github.com/couchcryptid/obswell-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

// convertFlags registers the conversion flags shared by convert and serve,
// with defaults taken from cfg. Call apply after parsing.
type convertFlags struct {
	variables  *string
	startBlock *int
	endBlock   *int
	epoch      *string
	dateFormat *string
	floatFmt   *string
	outDir     *string
	xlsx       *bool
	depth      *bool
	calendar   *bool
	weekly     *bool
}

func registerConvertFlags(fs *flag.FlagSet, cfg *config.Config) convertFlags {
	return convertFlags{
		variables:  fs.String("variables", strings.Join(cfg.Variables, ","), "comma-separated variables to extract"),
		startBlock: fs.Int("start-block", cfg.StartBlock, "first block (layer) to extract, 1-based; 0 for the bottom layer"),
		endBlock:   fs.Int("end-block", cfg.EndBlock, "last block (layer) to extract; 0 for the top layer"),
		epoch:      fs.String("epoch", cfg.Epoch, "calendar instant of simulation time zero"),
		dateFormat: fs.String("date-format", cfg.DateFormat, "mid-week date format, e.g. YYYYMMDD; empty to omit"),
		floatFmt:   fs.String("float-format", cfg.FloatFormat, "printf format for float output"),
		outDir:     fs.String("out", cfg.OutputDir, "output folder"),
		xlsx:       fs.Bool("xlsx", cfg.XLSXEnabled, "also write an .xlsx workbook"),
		depth:      fs.Bool("depth", true, "derive depth below the surface layer"),
		calendar:   fs.Bool("calendar", true, "convert simulation seconds to calendar time"),
		weekly:     fs.Bool("weekly", true, "average by ISO week"),
	}
}

func (f convertFlags) apply(cfg *config.Config) (pipeline.Options, error) {
	cfg.Variables = config.SplitList(*f.variables)
	cfg.StartBlock = *f.startBlock
	cfg.EndBlock = *f.endBlock
	cfg.Epoch = *f.epoch
	cfg.DateFormat = *f.dateFormat
	cfg.FloatFormat = *f.floatFmt
	cfg.OutputDir = *f.outDir
	cfg.XLSXEnabled = *f.xlsx
	if err := cfg.Validate(); err != nil {
		return pipeline.Options{}, err
	}

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts.Depth = *f.depth
	opts.Calendar = *f.calendar
	opts.Weekly = *f.weekly
	return opts, nil
}

// buildSinks returns the configured output sinks and a function closing
// the ones that hold connections.
func buildSinks(cfg *config.Config, logger *slog.Logger) ([]pipeline.Sink, func()) {
	sinks := []pipeline.Sink{
		{Name: "tecplot", Loader: tecplot.NewWriter(cfg.OutputDir, cfg.FloatFormat, logger)},
	}
	if cfg.XLSXEnabled {
		sinks = append(sinks, pipeline.Sink{Name: "xlsx", Loader: xlsx.NewWriter(cfg.OutputDir, logger)})
	}
	closeFn := func() {}
	if cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: w})
		closeFn = func() {
			if err := w.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}
	return sinks, closeFn
}

func runConvert(cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	flags := registerConvertFlags(fs, cfg)
	zone := fs.String("zone", "", "zone name for the output; defaults to the input file name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	inputs := fs.Args()
	if len(inputs) == 0 {
		fs.Usage()
		return errors.New("no input files")
	}
	if *zone != "" && len(inputs) > 1 {
		return errors.New("-zone applies to a single input file")
	}
	opts, err := flags.apply(cfg)
	if err != nil {
		return err
	}

	warnIfMissing(logger, "output folder", cfg.OutputDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	sinks, closeSinks := buildSinks(cfg, logger)
	defer closeSinks()
	p := pipeline.New(blockfile.NewSource(logger), sinks, logger, metrics)

	var failed int
	for _, in := range inputs {
		if _, err := p.Run(ctx, pipeline.Job{Input: in, Zone: *zone, Options: opts}); err != nil {
			failed++
			if ctx.Err() != nil {
				break
			}
		}
	}

	if err := observability.Export(prometheus.DefaultGatherer, cfg.MetricsTextfile, cfg.MetricsPushURL, "obswell_convert"); err != nil {
		logger.Error("metrics export failed", "error", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(inputs))
	}
	logger.Info("all inputs converted", "inputs", len(inputs), "out", cfg.OutputDir)
	return nil
}

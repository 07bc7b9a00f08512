package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/obswell-etl/internal/adapter/tecplot"
	"github.com/couchcryptid/obswell-etl/internal/config"
	"github.com/couchcryptid/obswell-etl/internal/domain"
	"github.com/couchcryptid/obswell-etl/internal/observability"
	"github.com/couchcryptid/obswell-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

func runCompare(cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	simulated := fs.String("simulated", "", "converted simulation table with time and depth columns (run convert with -weekly=false)")
	epoch := fs.String("epoch", cfg.Epoch, "calendar instant of simulation time zero")
	dateCol := fs.String("date-column", cfg.ObservedDateColumn, "observed date-serial column")
	valueCol := fs.String("value-column", cfg.ObservedValueColumn, "observed depth column")
	minRows := fs.Int("min-rows", cfg.CompareMinRows, "skip stations with fewer observed rows")
	outDir := fs.String("out", cfg.OutputDir, "output folder for aligned series")
	floatFmt := fs.String("float-format", cfg.FloatFormat, "printf format for float output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	stations := fs.Args()
	if *simulated == "" || len(stations) == 0 {
		fs.Usage()
		return errors.New("need -simulated and at least one observed file")
	}
	start, err := domain.ParseEpoch(*epoch)
	if err != nil {
		return err
	}
	warnIfMissing(logger, "simulated file", *simulated)
	warnIfMissing(logger, "output folder", *outDir)
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	c := pipeline.NewComparer(tecplot.NewReader(','), logger, metrics)

	var failed int
	for _, obs := range stations {
		if ctx.Err() != nil {
			break
		}
		cmp, ok, err := c.Compare(ctx, pipeline.CompareJob{
			Observed:  obs,
			Simulated: *simulated,
			Options: domain.AlignOptions{
				DateColumn:  *dateCol,
				ValueColumn: *valueCol,
				Epoch:       start,
			},
			MinRows: *minRows,
		})
		if err != nil {
			failed++
			logger.Error("comparison failed", "observed", obs, "error", err)
			continue
		}
		if !ok {
			continue
		}
		path := filepath.Join(*outDir, domain.ZoneFromPath(obs)+"_compare.csv")
		if err := writeComparison(path, cmp, *floatFmt); err != nil {
			failed++
			logger.Error("write comparison failed", "path", path, "error", err)
			continue
		}
		logger.Info("comparison written", "path", path)
	}

	if err := observability.Export(prometheus.DefaultGatherer, cfg.MetricsTextfile, cfg.MetricsPushURL, "obswell_compare"); err != nil {
		logger.Error("metrics export failed", "error", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d stations failed", failed, len(stations))
	}
	return nil
}

func writeComparison(path string, cmp domain.Comparison, floatFormat string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tecplot.EncodeComparison(f, cmp, floatFormat); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

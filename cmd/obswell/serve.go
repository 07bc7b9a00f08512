package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/obswell-etl/internal/adapter/blockfile"
	httpadapter "github.com/couchcryptid/obswell-etl/internal/adapter/http"
	"github.com/couchcryptid/obswell-etl/internal/config"
	"github.com/couchcryptid/obswell-etl/internal/observability"
	"github.com/couchcryptid/obswell-etl/internal/pipeline"
)

func runServe(cfg *config.Config, logger *slog.Logger) error {
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	sinks, closeSinks := buildSinks(cfg, logger)
	defer closeSinks()
	p := pipeline.New(blockfile.NewSource(logger), sinks, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, opts, cfg.FloatFormat, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

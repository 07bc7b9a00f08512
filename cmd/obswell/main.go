// Command obswell post-processes HydroGeoSphere observation-well output.
//
// Usage:
//
//	obswell convert [flags] well.dat [well2.dat ...]
//	obswell compare [flags] -simulated sim.csv observed.csv [observed2.csv ...]
//	obswell serve
//
// Settings come from the environment (and a .env file when present); flags
// override them per run.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/obswell-etl/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

const usage = `usage: obswell <command> [flags] [args]

commands:
  convert   convert observation-well block files to tables
  compare   align observed station series with simulated depth
  serve     run the HTTP conversion service
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	switch args[0] {
	case "convert":
		err = runConvert(cfg, logger, args[1:])
	case "compare":
		err = runCompare(cfg, logger, args[1:])
	case "serve":
		err = runServe(cfg, logger)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if err != nil {
		logger.Error(args[0]+" failed", "error", err)
		return 1
	}
	return 0
}

// warnIfMissing logs a warning when a path the run depends on does not exist.
func warnIfMissing(logger *slog.Logger, what, path string) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Warn(what+" not found", "path", path)
	}
}

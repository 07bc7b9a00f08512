package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/obswell-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all settings, populated from environment variables.
// Command-line flags override individual fields after Load.
type Config struct {
	LogLevel  string
	LogFormat string

	// Conversion settings.
	Epoch       string
	Variables   []string
	StartBlock  int
	EndBlock    int
	DateFormat  string
	FloatFormat string

	// Output sinks.
	OutputDir    string
	XLSXEnabled  bool
	KafkaBrokers []string
	KafkaTopic   string

	// Batch metrics export.
	MetricsTextfile string
	MetricsPushURL  string

	// Serve mode.
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Comparison settings.
	ObservedDateColumn  string
	ObservedValueColumn string
	CompareMinRows      int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	startBlock, err := parseNonNegative("START_BLOCK")
	if err != nil {
		return nil, err
	}
	endBlock, err := parseNonNegative("END_BLOCK")
	if err != nil {
		return nil, err
	}
	minRows, err := strconv.Atoi(sharedcfg.EnvOrDefault("COMPARE_MIN_ROWS", "50"))
	if err != nil || minRows < 0 {
		return nil, errors.New("invalid COMPARE_MIN_ROWS")
	}

	cfg := &Config{
		LogLevel:    sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:   sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		Epoch:       sharedcfg.EnvOrDefault("SIMULATION_EPOCH", "2002-01-01T00:00:00Z"),
		Variables:   SplitList(sharedcfg.EnvOrDefault("VARIABLES", "H,S,Z")),
		StartBlock:  startBlock,
		EndBlock:    endBlock,
		DateFormat:  os.Getenv("DATE_FORMAT"),
		FloatFormat: sharedcfg.EnvOrDefault("FLOAT_FORMAT", "%.6f"),

		OutputDir:    sharedcfg.EnvOrDefault("OUTPUT_DIR", "."),
		XLSXEnabled:  os.Getenv("XLSX_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "obswell-weekly"),

		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		MetricsPushURL:  os.Getenv("METRICS_PUSH_URL"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,

		ObservedDateColumn:  sharedcfg.EnvOrDefault("OBSERVED_DATE_COLUMN", "date"),
		ObservedValueColumn: sharedcfg.EnvOrDefault("OBSERVED_VALUE_COLUMN", "DTGS"),
		CompareMinRows:      minRows,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. It is called by Load and again
// after flag overrides.
func (c *Config) Validate() error {
	if len(c.Variables) == 0 {
		return errors.New("VARIABLES must name at least one variable")
	}
	if c.StartBlock < 0 || c.EndBlock < 0 {
		return errors.New("START_BLOCK and END_BLOCK must not be negative")
	}
	if c.StartBlock > 0 && c.EndBlock > 0 && c.StartBlock > c.EndBlock {
		return fmt.Errorf("START_BLOCK %d is after END_BLOCK %d: %w", c.StartBlock, c.EndBlock,
			&domain.RangeError{Bound: "end_block", Value: c.EndBlock, Min: c.StartBlock, Max: c.EndBlock})
	}
	if !strings.Contains(c.FloatFormat, "%") {
		return fmt.Errorf("FLOAT_FORMAT %q has no formatting verb", c.FloatFormat)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	return nil
}

// KafkaEnabled reports whether the Kafka sink is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseNonNegative(key string) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

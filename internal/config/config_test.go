package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/obswell-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "2002-01-01T00:00:00Z", cfg.Epoch)
	assert.Equal(t, []string{"H", "S", "Z"}, cfg.Variables)
	assert.Zero(t, cfg.StartBlock)
	assert.Zero(t, cfg.EndBlock)
	assert.Empty(t, cfg.DateFormat)
	assert.Equal(t, "%.6f", cfg.FloatFormat)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.False(t, cfg.XLSXEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "obswell-weekly", cfg.KafkaTopic)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Empty(t, cfg.MetricsPushURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "date", cfg.ObservedDateColumn)
	assert.Equal(t, "DTGS", cfg.ObservedValueColumn)
	assert.Equal(t, 50, cfg.CompareMinRows)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SIMULATION_EPOCH", "1990-06-01T00:00:00Z")
	t.Setenv("VARIABLES", " H , Z ")
	t.Setenv("START_BLOCK", "2")
	t.Setenv("END_BLOCK", "8")
	t.Setenv("DATE_FORMAT", "YYYYMMDD")
	t.Setenv("FLOAT_FORMAT", "%.3f")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("XLSX_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "wells")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/obswell.prom")
	t.Setenv("METRICS_PUSH_URL", "http://pushgateway:9091")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("OBSERVED_DATE_COLUMN", "day")
	t.Setenv("OBSERVED_VALUE_COLUMN", "WL")
	t.Setenv("COMPARE_MIN_ROWS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "1990-06-01T00:00:00Z", cfg.Epoch)
	assert.Equal(t, []string{"H", "Z"}, cfg.Variables)
	assert.Equal(t, 2, cfg.StartBlock)
	assert.Equal(t, 8, cfg.EndBlock)
	assert.Equal(t, "YYYYMMDD", cfg.DateFormat)
	assert.Equal(t, "%.3f", cfg.FloatFormat)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.True(t, cfg.XLSXEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "wells", cfg.KafkaTopic)
	assert.Equal(t, "/var/lib/node_exporter/obswell.prom", cfg.MetricsTextfile)
	assert.Equal(t, "http://pushgateway:9091", cfg.MetricsPushURL)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "day", cfg.ObservedDateColumn)
	assert.Equal(t, "WL", cfg.ObservedValueColumn)
	assert.Equal(t, 10, cfg.CompareMinRows)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"START_BLOCK", "first", "START_BLOCK"},
		{"END_BLOCK", "-3", "END_BLOCK"},
		{"COMPARE_MIN_ROWS", "many", "COMPARE_MIN_ROWS"},
		{"FLOAT_FORMAT", "six", "FLOAT_FORMAT"},
		{"VARIABLES", " , ", "VARIABLES"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_StartAfterEnd(t *testing.T) {
	t.Setenv("START_BLOCK", "5")
	t.Setenv("END_BLOCK", "2")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after END_BLOCK")
	require.ErrorIs(t, err, domain.ErrRange)
	var rangeErr *domain.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "end_block", rangeErr.Bound)
	assert.Equal(t, 2, rangeErr.Value)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"H", "S", "Z"}, SplitList("H,S,Z"))
	assert.Equal(t, []string{"H", "Z"}, SplitList(" H ,, Z "))
	assert.Nil(t, SplitList(""))
}

package blockfile

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/obswell-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `VARIABLES = "H","Z"
zone t="3600.0"
  10.0  12.0
  11.0  13.0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSource_Extract(t *testing.T) {
	path := writeFile(t, "Baildon059.dat", sample)

	raw, err := NewSource(slog.Default()).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, raw.Source)
	assert.Equal(t, []string{"H", "Z"}, raw.Header)
	assert.Equal(t, 2, raw.BlockCount)
	assert.Equal(t, []float64{3600}, raw.TimeOffsets)
}

func TestSource_Extract_Errors(t *testing.T) {
	src := NewSource(slog.Default())

	t.Run("missing file", func(t *testing.T) {
		_, err := src.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.dat"))
		require.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := src.Extract(context.Background(), t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is a directory")
	})

	t.Run("malformed", func(t *testing.T) {
		path := writeFile(t, "bad.dat", "zone t=\"0\"\n1 2\n")
		_, err := src.Extract(context.Background(), path)
		require.ErrorIs(t, err, domain.ErrFormat)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := src.Extract(ctx, writeFile(t, "w.dat", sample))
		require.ErrorIs(t, err, context.Canceled)
	})
}

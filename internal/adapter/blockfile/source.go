package blockfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/obswell-etl/internal/domain"
)

// Source reads HGS observation-well files from the local filesystem.
// It implements pipeline.Extractor.
type Source struct {
	logger *slog.Logger
}

// NewSource creates a filesystem Source.
func NewSource(logger *slog.Logger) *Source {
	return &Source{logger: logger}
}

// Extract opens path and parses it as a block file.
func (s *Source) Extract(ctx context.Context, path string) (domain.RawBlockTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawBlockTable{}, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("input file not found", "path", path)
		return domain.RawBlockTable{}, fmt.Errorf("input %s: %w", path, err)
	}
	if err != nil {
		return domain.RawBlockTable{}, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return domain.RawBlockTable{}, fmt.Errorf("input %s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.RawBlockTable{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	raw, err := domain.ParseBlocks(f, path)
	if err != nil {
		return domain.RawBlockTable{}, err
	}
	s.logger.Debug("block file read", "path", path, "bytes", info.Size(), "rows", len(raw.Rows))
	return raw, nil
}

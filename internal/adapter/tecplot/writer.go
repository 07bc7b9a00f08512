// Package tecplot reads and writes Tecplot-style ASCII tables: a VARIABLES
// line naming the columns, one or more ZONE lines, and delimited rows.
package tecplot

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/obswell-etl/internal/domain"
)

// DefaultFloatFormat renders floats with six decimals.
const DefaultFloatFormat = "%.6f"

// Writer writes each batch to <dir>/<zone>.csv.
// It implements pipeline.Loader.
type Writer struct {
	dir         string
	floatFormat string
	logger      *slog.Logger
}

// NewWriter creates a Writer rooted at dir. An empty floatFormat means
// DefaultFloatFormat.
func NewWriter(dir, floatFormat string, logger *slog.Logger) *Writer {
	if floatFormat == "" {
		floatFormat = DefaultFloatFormat
	}
	return &Writer{dir: dir, floatFormat: floatFormat, logger: logger}
}

// Path returns the file a batch for zone is written to.
func (w *Writer) Path(zone string) string {
	return filepath.Join(w.dir, zone+".csv")
}

// Load writes batch as a single-zone Tecplot file.
func (w *Writer) Load(_ context.Context, batch domain.Batch) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}
	path := w.Path(batch.Zone)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, batch, w.floatFormat); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	w.logger.Info("tecplot file written", "path", path, "rows", batch.Table.Len())
	return nil
}

// CheckReadiness reports whether the output folder exists.
func (w *Writer) CheckReadiness(_ context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("output folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output folder %s is not a directory", w.dir)
	}
	return nil
}

// Encode writes batch to out with one ZONE named after batch.Zone.
func Encode(out io.Writer, batch domain.Batch, floatFormat string) error {
	bw := bufio.NewWriter(out)
	writeHeader(bw, batch.Table.Names())
	if err := writeZone(bw, batch.Zone, batch.Table, floatFormat); err != nil {
		return err
	}
	return bw.Flush()
}

// EncodeComparison writes an aligned comparison as one file with a ZONE per
// series: the observed series first, then each simulated series.
func EncodeComparison(out io.Writer, cmp domain.Comparison, floatFormat string) error {
	bw := bufio.NewWriter(out)
	writeHeader(bw, []string{domain.DefaultObservedDateColumn, cmp.Observed.Name})

	series := append([]domain.Series{cmp.Observed}, cmp.Simulated...)
	for _, s := range series {
		t, err := domain.NewTable(
			domain.Column{Name: domain.DefaultObservedDateColumn, Floats: s.X},
			domain.Column{Name: s.Name, Floats: s.Y},
		)
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Name, err)
		}
		if err := writeZone(bw, s.Name, t, floatFormat); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeHeader(w *bufio.Writer, names []string) {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	fmt.Fprintf(w, "VARIABLES = %s\n", strings.Join(quoted, ","))
}

func writeZone(w *bufio.Writer, zone string, t domain.Table, floatFormat string) error {
	fmt.Fprintf(w, "ZONE T=\"%s\"\n", zone)

	cw := csv.NewWriter(w)
	record := make([]string, len(t.Columns))
	for i := range t.Len() {
		for j := range t.Columns {
			record[j] = formatCell(t.Columns[j], i, floatFormat)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(c domain.Column, i int, floatFormat string) string {
	switch c.Kind() {
	case domain.KindTime:
		return c.Times[i].Format(time.RFC3339)
	case domain.KindString:
		return c.Strings[i]
	default:
		return fmt.Sprintf(floatFormat, c.Floats[i])
	}
}

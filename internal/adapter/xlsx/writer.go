package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/obswell-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name a workbook accepts.
const maxSheetName = 31

// Writer writes each batch to <dir>/<zone>.xlsx with one sheet named after
// the zone. It implements pipeline.Loader.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Path returns the workbook a batch for zone is written to.
func (w *Writer) Path(zone string) string {
	return filepath.Join(w.dir, zone+".xlsx")
}

// Load writes batch as a workbook: a header row of column names followed
// by one row per table row. Floats and instants are stored as cell values,
// not text.
func (w *Writer) Load(_ context.Context, batch domain.Batch) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(batch.Zone)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet %q: %w", sheet, err)
	}

	t := batch.Table
	for j, name := range t.Names() {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
	}
	for i := range t.Len() {
		for j, c := range t.Columns {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, c.Value(i)); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	path := w.Path(batch.Zone)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	w.logger.Info("workbook written", "path", path, "sheet", sheet, "rows", t.Len())
	return nil
}

// SheetName turns a zone into a valid sheet name: characters a workbook
// rejects become underscores and the result is cut to 31 characters.
func SheetName(zone string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, zone)
	name = strings.Trim(name, "'")
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	if name == "" {
		return "Sheet1"
	}
	return name
}

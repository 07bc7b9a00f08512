package tecplot

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/obswell-etl/internal/domain"
)

// Reader reads Tecplot tables from the local filesystem.
// It implements pipeline.TableReader.
type Reader struct {
	comma rune
}

// NewReader creates a Reader splitting rows on comma. Use ' ' for
// whitespace-separated files.
func NewReader(comma rune) *Reader {
	return &Reader{comma: comma}
}

// ReadTable opens path and decodes it.
func (r *Reader) ReadTable(ctx context.Context, path string) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	return Decode(f, path, r.comma)
}

// Decode reads a table with a VARIABLES header. TITLE, ZONE, and comment
// lines are skipped, so rows of every zone are concatenated. Each column
// takes its kind from its first cell (number, RFC 3339 instant, or text)
// and its role from its name.
func Decode(in io.Reader, source string, comma rune) (domain.Table, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		header []string
		cols   []*column
		line   int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		lower := strings.ToLower(text)
		switch {
		case text == "", strings.HasPrefix(text, "#"),
			strings.HasPrefix(lower, "title"), strings.HasPrefix(lower, "zone"):
			continue
		case strings.HasPrefix(lower, "variable"):
			if header != nil {
				continue
			}
			rest := text[len("variable"):]
			if len(rest) > 0 && (rest[0] == 's' || rest[0] == 'S') {
				rest = rest[1:]
			}
			header = splitHeader(rest)
			cols = make([]*column, len(header))
			for i, name := range header {
				cols[i] = &column{name: name}
			}
			continue
		}

		if header == nil {
			return domain.Table{}, fmt.Errorf("%w: %s line %d: data before VARIABLES line", domain.ErrFormat, source, line)
		}
		fields, err := splitRow(text, comma)
		if err != nil {
			return domain.Table{}, fmt.Errorf("%w: %s line %d: %v", domain.ErrFormat, source, line, err)
		}
		if len(fields) != len(header) {
			return domain.Table{}, fmt.Errorf("%w: %s line %d: %d fields, header names %d",
				domain.ErrFormat, source, line, len(fields), len(header))
		}
		for i, v := range fields {
			if err := cols[i].add(v); err != nil {
				return domain.Table{}, &domain.ParseError{
					Source: source,
					Column: cols[i].name,
					Row:    cols[i].n,
					Line:   line,
					Value:  v,
					Err:    err,
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", source, err)
	}
	if header == nil {
		return domain.Table{}, fmt.Errorf("%w: %s: no VARIABLES line", domain.ErrFormat, source)
	}

	out := make([]domain.Column, len(cols))
	for i, c := range cols {
		out[i] = c.build()
	}
	return domain.NewTable(out...)
}

func splitHeader(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "=")
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '"' || r == ' ' || r == '\t'
	})
}

func splitRow(line string, comma rune) ([]string, error) {
	if comma == ' ' {
		return strings.Fields(line), nil
	}
	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = comma
	cr.TrimLeadingSpace = true
	fields, err := cr.Read()
	if err != nil {
		return nil, err
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}

// column accumulates the cells of one column, fixing its kind on the
// first cell.
type column struct {
	name    string
	kind    domain.Kind
	n       int
	floats  []float64
	times   []time.Time
	strings []string
}

func (c *column) add(v string) error {
	if c.n == 0 {
		c.kind = sniff(v)
	}
	switch c.kind {
	case domain.KindFloat:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.floats = append(c.floats, f)
	case domain.KindTime:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return err
		}
		c.times = append(c.times, t)
	default:
		c.strings = append(c.strings, v)
	}
	c.n++
	return nil
}

func (c *column) build() domain.Column {
	role, variable, layer := domain.InferColumn(c.name)
	return domain.Column{
		Name:     c.name,
		Role:     role,
		Variable: variable,
		Layer:    layer,
		Floats:   c.floats,
		Times:    c.times,
		Strings:  c.strings,
	}
}

func sniff(v string) domain.Kind {
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return domain.KindFloat
	}
	if _, err := time.Parse(time.RFC3339, v); err == nil {
		return domain.KindTime
	}
	return domain.KindString
}

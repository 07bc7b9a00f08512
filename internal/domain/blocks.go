package domain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// RawBlockTable is the parsed content of an observation-well file before
// reshaping. Rows are ordered as in the file: for each output step, one row
// per block (layer), bottom layer first.
type RawBlockTable struct {
	Source      string
	Header      []string
	Rows        [][]string
	BlockCount  int
	TimeOffsets []float64
}

// Steps returns the number of output time steps.
func (r RawBlockTable) Steps() int {
	if r.BlockCount == 0 {
		return 0
	}
	return len(r.Rows) / r.BlockCount
}

// headerIndex returns the field position of a variable, or -1.
func (r RawBlockTable) headerIndex(variable string) int {
	for i, h := range r.Header {
		if h == variable {
			return i
		}
	}
	return -1
}

// ParseBlocks reads an observation-well file. source names the input in
// error messages. The whole file is scanned once; the first run of
// digit-leading lines determines the block count.
func ParseBlocks(r io.Reader, source string) (RawBlockTable, error) {
	raw := RawBlockTable{Source: source}

	runStart, runEnd := -1, -1
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 0; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		lower := strings.ToLower(line)

		if isDataLine(line) {
			if runStart < 0 {
				runStart = n
			}
			fields := strings.Fields(line)
			if raw.Header != nil && len(fields) != len(raw.Header) {
				return RawBlockTable{}, formatErrorf(source, "line %d has %d fields, header has %d", n+1, len(fields), len(raw.Header))
			}
			raw.Rows = append(raw.Rows, fields)
			continue
		}
		if runStart >= 0 && runEnd < 0 {
			runEnd = n
		}

		switch {
		case strings.HasPrefix(lower, "variable"):
			if raw.Header == nil {
				header, err := parseHeader(line, source)
				if err != nil {
					return RawBlockTable{}, err
				}
				raw.Header = header
			}
		case strings.HasPrefix(lower, "zone"):
			offset, err := parseZoneOffset(line)
			if err != nil {
				return RawBlockTable{}, &ParseError{Source: source, Column: ColTime, Row: len(raw.TimeOffsets), Line: n + 1, Value: line, Err: err}
			}
			raw.TimeOffsets = append(raw.TimeOffsets, offset)
		}
	}
	if err := sc.Err(); err != nil {
		return RawBlockTable{}, fmt.Errorf("read %s: %w", source, err)
	}

	if raw.Header == nil {
		return RawBlockTable{}, formatErrorf(source, "no VARIABLES header line")
	}
	if runStart < 0 {
		return RawBlockTable{}, formatErrorf(source, "no data lines")
	}
	if runEnd < 0 {
		runEnd = runStart + len(raw.Rows)
	}
	raw.BlockCount = runEnd - runStart

	// Rows read before the header was seen were not width-checked.
	for i, row := range raw.Rows {
		if len(row) != len(raw.Header) {
			return RawBlockTable{}, formatErrorf(source, "data row %d has %d fields, header has %d", i+1, len(row), len(raw.Header))
		}
	}
	if len(raw.Rows)%raw.BlockCount != 0 {
		return RawBlockTable{}, formatErrorf(source, "%d data rows is not a multiple of block count %d", len(raw.Rows), raw.BlockCount)
	}
	return raw, nil
}

func isDataLine(line string) bool {
	return line != "" && line[0] >= '0' && line[0] <= '9'
}

// parseHeader turns `VARIABLES = "H","S","Z"` into [H S Z].
func parseHeader(line, source string) ([]string, error) {
	rest := line[len("variable"):]
	if len(rest) > 0 && (rest[0] == 's' || rest[0] == 'S') {
		rest = rest[1:]
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, "=")

	names := strings.FieldsFunc(rest, func(r rune) bool {
		return r == ',' || r == '"' || unicode.IsSpace(r)
	})
	if len(names) == 0 {
		return nil, formatErrorf(source, "empty VARIABLES header")
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return nil, formatErrorf(source, "duplicate variable %q in header", n)
		}
		seen[n] = struct{}{}
	}
	return names, nil
}

// parseZoneOffset reads the trailing numeric token of a zone line, e.g.
// `zone t="86400.0"` or `ZONE T= 86400.0`.
func parseZoneOffset(line string) (float64, error) {
	fields := strings.Fields(strings.TrimRight(line, `"' `))
	tok := fields[len(fields)-1]
	if i := strings.LastIndexByte(tok, '='); i >= 0 {
		tok = tok[i+1:]
	}
	tok = strings.Trim(tok, `"'`)
	return strconv.ParseFloat(tok, 64)
}

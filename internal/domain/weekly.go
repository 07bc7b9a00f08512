package domain

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// WeeklyOptions controls AggregateWeekly. When DateFormat is set, each
// week gets a representative mid-week (Wednesday) date rendered in that
// format plus its spreadsheet serial.
type WeeklyOptions struct {
	DateFormat string
	Logger     *slog.Logger
}

type isoKey struct{ year, week int }

func (k isoKey) String() string { return fmt.Sprintf("%d-W%02d", k.year, k.week) }

// AggregateWeekly groups rows by ISO (year, week) in order of first
// appearance and replaces each group with the mean of every numeric
// column. The calendar time column is dropped; ISO_year and ISO_week lead
// the output.
func AggregateWeekly(t Table, opts WeeklyOptions) (Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ti := t.index(ColTime)
	if ti < 0 {
		return Table{}, missingField(ColTime, "weekly aggregation")
	}
	tc := t.Columns[ti]
	if tc.Kind() != KindTime {
		logger.Warn("time column is not calendar time; convert it before weekly aggregation",
			"column", ColTime, "kind", tc.Kind().String())
		return Table{}, fmt.Errorf("%w: ISO week of column %q needs calendar instants, got %s values",
			ErrTypeMismatch, ColTime, tc.Kind())
	}

	var numeric []Column
	for _, c := range t.Columns {
		switch {
		case c.Name == ColTime, c.Role == RoleISOYear, c.Role == RoleISOWeek:
			continue
		case c.Kind() != KindFloat:
			return Table{}, fmt.Errorf("%w: cannot average column %q of %s values", ErrTypeMismatch, c.Name, c.Kind())
		}
		numeric = append(numeric, c)
	}

	var order []isoKey
	groups := make(map[isoKey][]int)
	for i, ts := range tc.Times {
		y, w := ts.ISOWeek()
		k := isoKey{y, w}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	isoYear := Column{Name: ColISOYear, Role: RoleISOYear, Floats: make([]float64, len(order))}
	isoWeek := Column{Name: ColISOWeek, Role: RoleISOWeek, Floats: make([]float64, len(order))}
	means := make([]Column, len(numeric))
	for j, c := range numeric {
		means[j] = Column{Name: c.Name, Role: c.Role, Variable: c.Variable, Layer: c.Layer, Floats: make([]float64, len(order))}
	}

	buf := make([]float64, 0, 7)
	for g, k := range order {
		rows := groups[k]
		isoYear.Floats[g] = groupMean(buf, rows, func(int) float64 { return float64(k.year) })
		isoWeek.Floats[g] = groupMean(buf, rows, func(int) float64 { return float64(k.week) })
		for j, c := range numeric {
			means[j].Floats[g] = groupMean(buf, rows, func(i int) float64 { return c.Floats[i] })
		}
	}

	cols := append([]Column{isoYear, isoWeek}, means...)
	if opts.DateFormat == "" {
		return NewTable(cols...)
	}

	layout := GoLayout(opts.DateFormat)
	dates := Column{Name: ColMidWeekDate, Role: RoleMidWeekDate, Strings: make([]string, len(order))}
	serials := Column{Name: ColMidWeekDateSerial, Role: RoleDateSerial, Floats: make([]float64, len(order))}
	for g, k := range order {
		wed, err := MidWeek(k.year, k.week)
		if err != nil {
			return Table{}, err
		}
		dates.Strings[g] = wed.Format(layout)
		parsed, err := time.Parse(layout, dates.Strings[g])
		if err != nil {
			return Table{}, fmt.Errorf("%w: week %s: date format %q does not parse back: %v",
				ErrValue, k, opts.DateFormat, err)
		}
		if py, pm, pd := parsed.Date(); py != wed.Year() || pm != wed.Month() || pd != wed.Day() {
			return Table{}, fmt.Errorf("%w: week %s: date format %q renders %s as %q, which reads back as %s",
				ErrValue, k, opts.DateFormat, wed.Format(time.DateOnly), dates.Strings[g], parsed.Format(time.DateOnly))
		}
		serials.Floats[g] = DateSerial(parsed)
	}
	cols = append([]Column{dates}, cols...)
	cols = append(cols, serials)
	return NewTable(cols...)
}

func groupMean(buf []float64, rows []int, at func(int) float64) float64 {
	buf = buf[:0]
	for _, i := range rows {
		buf = append(buf, at(i))
	}
	return stat.Mean(buf, nil)
}

// MidWeek returns the Wednesday of ISO week (year, week) at 00:00 UTC.
func MidWeek(year, week int) (time.Time, error) {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	wed := monday.AddDate(0, 0, (week-1)*7+2)
	if y, w := wed.ISOWeek(); y != year || w != week || week < 1 {
		return time.Time{}, fmt.Errorf("%w: week %s does not exist", ErrValue, isoKey{year, week})
	}
	return wed, nil
}

var layoutTokens = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
	"%Y", "2006",
	"%y", "06",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
)

// GoLayout converts Arrow-style (YYYYMMDD) or strftime-style (%Y-%m-%d)
// date formats to a Go time layout. Strings that already contain the Go
// reference year are returned unchanged.
func GoLayout(format string) string {
	if strings.Contains(format, "2006") {
		return format
	}
	return layoutTokens.Replace(format)
}

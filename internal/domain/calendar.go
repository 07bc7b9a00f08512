package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

// DefaultEpoch is the calendar instant of simulation time zero used when
// none is configured.
const DefaultEpoch = "2002-01-01T00:00:00Z"

const secondsPerDay = 86400

// serialEpoch is day zero of the spreadsheet (1900) date system.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var epochLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseEpoch parses an ISO 8601 instant. Strings without a zone offset are
// taken as UTC.
func ParseEpoch(s string) (time.Time, error) {
	for _, layout := range epochLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: epoch %q is not an ISO 8601 instant", ErrValue, s)
}

// ToCalendar replaces the numeric time column (seconds since epoch) with
// calendar instants and appends elapsed_time holding the original seconds.
func ToCalendar(t Table, epoch time.Time) (Table, error) {
	i := t.index(ColTime)
	if i < 0 {
		return Table{}, missingField(ColTime, "calendar conversion")
	}
	src := t.Columns[i]
	if src.Kind() != KindFloat {
		return Table{}, fmt.Errorf("%w: column %q holds %s values, want seconds", ErrTypeMismatch, ColTime, src.Kind())
	}
	if _, dup := t.Column(ColElapsedTime); dup {
		return Table{}, fmt.Errorf("%w: column %q already present", ErrFormat, ColElapsedTime)
	}

	out := t.Clone()
	times := make([]time.Time, len(src.Floats))
	for j, sec := range src.Floats {
		times[j] = epoch.Add(time.Duration(math.Round(sec * float64(time.Second))))
	}
	out.Columns[i] = Column{Name: ColTime, Role: RoleTime, Times: times}
	out.Columns = append(out.Columns, Column{
		Name:   ColElapsedTime,
		Role:   RoleElapsed,
		Floats: append([]float64(nil), src.Floats...),
	})
	return out, nil
}

// DateSerial converts an instant to a spreadsheet date serial: fractional
// days since 1899-12-30 in the instant's wall-clock time.
func DateSerial(t time.Time) float64 {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return wall.Sub(serialEpoch).Seconds() / secondsPerDay
}

// FromDateSerial is the inverse of DateSerial, returning a UTC instant.
func FromDateSerial(serial float64) (time.Time, error) {
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date serial %v: %v", ErrValue, serial, err)
	}
	return t, nil
}

package domain

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

// Comparison defaults.
const (
	DefaultObservedDateColumn  = "date"
	DefaultObservedValueColumn = "DTGS"
	// DefaultMinObservedRows is the smallest observed series worth plotting.
	DefaultMinObservedRows = 50
)

// AlignOptions names the observed columns and the simulation epoch.
type AlignOptions struct {
	DateColumn  string
	ValueColumn string
	Epoch       time.Time
}

// Series is one curve on the shared date-serial axis.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.X) }

// Window is the x-range a renderer should display.
type Window struct {
	Min float64
	Max float64
}

// Comparison holds an observed series and the simulated depth series, all
// on a spreadsheet date-serial axis.
type Comparison struct {
	Observed  Series
	Simulated []Series
	Window    Window
}

// Sufficient reports whether the observed series has at least minRows points.
func (c Comparison) Sufficient(minRows int) bool {
	return c.Observed.Len() >= minRows
}

// Align puts an observed series (dates already as serials) and the depth
// columns of a simulated table (time in seconds since opts.Epoch, or
// elapsed_time after calendar conversion) on a common date-serial axis:
// x = seconds/86400 + serial(epoch).
func Align(observed, simulated Table, opts AlignOptions) (Comparison, error) {
	if opts.DateColumn == "" {
		opts.DateColumn = DefaultObservedDateColumn
	}
	if opts.ValueColumn == "" {
		opts.ValueColumn = DefaultObservedValueColumn
	}

	obsX, err := floatColumn(observed, opts.DateColumn, "observed series")
	if err != nil {
		return Comparison{}, err
	}
	obsY, err := floatColumn(observed, opts.ValueColumn, "observed series")
	if err != nil {
		return Comparison{}, err
	}

	simT, err := simulatedSeconds(simulated)
	if err != nil {
		return Comparison{}, err
	}
	depths := simulated.ColumnsByRole(RoleDepth)
	if len(depths) == 0 {
		return Comparison{}, missingField(depthPrefix+VarHead+"<layer>", "simulated series has no depth columns")
	}

	offset := DateSerial(opts.Epoch)
	x := make([]float64, len(simT))
	for i, sec := range simT {
		x[i] = sec/secondsPerDay + offset
	}

	cmp := Comparison{
		Observed: Series{Name: opts.ValueColumn, X: obsX, Y: obsY},
	}
	for _, d := range depths {
		if d.Kind() != KindFloat {
			return Comparison{}, fmt.Errorf("%w: depth column %q holds %s values", ErrTypeMismatch, d.Name, d.Kind())
		}
		cmp.Simulated = append(cmp.Simulated, Series{
			Name: d.Name,
			X:    append([]float64(nil), x...),
			Y:    append([]float64(nil), d.Floats...),
		})
	}

	if len(x) > 0 {
		lo, err := stats.Min(x)
		if err != nil {
			return Comparison{}, fmt.Errorf("window min: %w", err)
		}
		hi, err := stats.Max(x)
		if err != nil {
			return Comparison{}, fmt.Errorf("window max: %w", err)
		}
		cmp.Window = Window{Min: lo, Max: hi}
	}
	return cmp, nil
}

// simulatedSeconds returns the simulation time in seconds: the time column
// itself, or elapsed_time once ToCalendar has replaced time with instants.
func simulatedSeconds(t Table) ([]float64, error) {
	if c, ok := t.Column(ColTime); ok && c.Kind() == KindTime {
		if _, ok := t.Column(ColElapsedTime); ok {
			return floatColumn(t, ColElapsedTime, "simulated series")
		}
	}
	if _, ok := t.Column(ColTime); !ok && len(t.ColumnsByRole(RoleISOWeek)) > 0 {
		return nil, missingField(ColTime, "simulated series holds weekly means; compare a table converted without weekly aggregation")
	}
	return floatColumn(t, ColTime, "simulated series")
}

func floatColumn(t Table, name, context string) ([]float64, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, missingField(name, context)
	}
	if c.Kind() != KindFloat {
		return nil, fmt.Errorf("%w: column %q holds %s values, want numbers", ErrTypeMismatch, name, c.Kind())
	}
	return append([]float64(nil), c.Floats...), nil
}

package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"
)

// Well-known column names.
const (
	ColTime              = "time"
	ColElapsedTime       = "elapsed_time"
	ColISOYear           = "ISO_year"
	ColISOWeek           = "ISO_week"
	ColMidWeekDate       = "date_mid_week"
	ColMidWeekDateSerial = "date_mid_week_numeric"

	depthPrefix = "depth_"
)

// Model variable names with a dedicated role.
const (
	VarHead      = "H"
	VarElevation = "Z"
)

// Role tags what a column means so later stages select columns by role
// rather than by searching names.
type Role int

const (
	RoleOther Role = iota
	RoleTime
	RoleElapsed
	RoleHead
	RoleElevation
	RoleVariable
	RoleDepth
	RoleISOYear
	RoleISOWeek
	RoleMidWeekDate
	RoleDateSerial
	RoleObserved
)

var roleNames = map[Role]string{
	RoleOther:       "other",
	RoleTime:        "time",
	RoleElapsed:     "elapsed",
	RoleHead:        "head",
	RoleElevation:   "elevation",
	RoleVariable:    "variable",
	RoleDepth:       "depth",
	RoleISOYear:     "iso_year",
	RoleISOWeek:     "iso_week",
	RoleMidWeekDate: "mid_week_date",
	RoleDateSerial:  "date_serial",
	RoleObserved:    "observed",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}

// Kind is the storage type of a column's values.
type Kind int

const (
	KindFloat Kind = iota
	KindTime
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindString:
		return "string"
	default:
		return "float"
	}
}

// Column is a named, typed vector of values. Exactly one of Floats, Times
// or Strings holds the data. Variable and Layer carry the model variable
// and 1-based layer (block) index for layered columns; Layer is 0 otherwise.
type Column struct {
	Name     string
	Role     Role
	Variable string
	Layer    int

	Floats  []float64
	Times   []time.Time
	Strings []string
}

// Kind reports which value slice the column uses.
func (c Column) Kind() Kind {
	switch {
	case c.Times != nil:
		return KindTime
	case c.Strings != nil:
		return KindString
	default:
		return KindFloat
	}
}

// Len returns the number of values.
func (c Column) Len() int {
	switch c.Kind() {
	case KindTime:
		return len(c.Times)
	case KindString:
		return len(c.Strings)
	default:
		return len(c.Floats)
	}
}

// Value returns the i-th value as float64, time.Time or string.
func (c Column) Value(i int) any {
	switch c.Kind() {
	case KindTime:
		return c.Times[i]
	case KindString:
		return c.Strings[i]
	default:
		return c.Floats[i]
	}
}

func (c Column) clone() Column {
	out := c
	out.Floats = slices.Clone(c.Floats)
	out.Times = slices.Clone(c.Times)
	out.Strings = slices.Clone(c.Strings)
	return out
}

// layeredName matches synthesized column names such as "H5" or "Z12".
var layeredName = regexp.MustCompile(`^([A-Za-z]+)([0-9]+)$`)

// InferColumn derives role, variable and layer from a column name. It is
// used once, when a table is loaded from a text file that carries names
// only; tables built by Reshape already carry this information.
func InferColumn(name string) (role Role, variable string, layer int) {
	switch name {
	case ColTime:
		return RoleTime, "", 0
	case ColElapsedTime:
		return RoleElapsed, "", 0
	case ColISOYear:
		return RoleISOYear, "", 0
	case ColISOWeek:
		return RoleISOWeek, "", 0
	case ColMidWeekDate:
		return RoleMidWeekDate, "", 0
	case ColMidWeekDateSerial:
		return RoleDateSerial, "", 0
	}

	base, depth := name, false
	if len(name) > len(depthPrefix) && name[:len(depthPrefix)] == depthPrefix {
		base, depth = name[len(depthPrefix):], true
	}
	m := layeredName.FindStringSubmatch(base)
	if m == nil {
		return RoleOther, "", 0
	}
	layer, err := strconv.Atoi(m[2])
	if err != nil {
		return RoleOther, "", 0
	}
	if depth {
		return RoleDepth, m[1], layer
	}
	return variableRole(m[1]), m[1], layer
}

func variableRole(variable string) Role {
	switch variable {
	case VarHead:
		return RoleHead
	case VarElevation:
		return RoleElevation
	default:
		return RoleVariable
	}
}

// Table is an ordered set of equal-length columns. Tables are treated as
// values: every transformation returns a new Table and leaves its input
// untouched.
type Table struct {
	Columns []Column
}

// NewTable validates that column names are unique and lengths agree.
func NewTable(cols ...Column) (Table, error) {
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return Table{}, fmt.Errorf("%w: duplicate column %q", ErrFormat, c.Name)
		}
		seen[c.Name] = struct{}{}
		if i > 0 && c.Len() != cols[0].Len() {
			return Table{}, fmt.Errorf("%w: column %q has %d rows, want %d",
				ErrLengthMismatch, c.Name, c.Len(), cols[0].Len())
		}
	}
	return Table{Columns: cols}, nil
}

// Len returns the row count.
func (t Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Names returns column names in order.
func (t Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	if i := t.index(name); i >= 0 {
		return t.Columns[i], true
	}
	return Column{}, false
}

// ColumnsByRole returns the columns tagged with role, in table order.
func (t Table) ColumnsByRole(role Role) []Column {
	var out []Column
	for _, c := range t.Columns {
		if c.Role == role {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.clone()
	}
	return Table{Columns: cols}
}

// Row returns row i keyed by column name.
func (t Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.Columns))
	for _, c := range t.Columns {
		row[c.Name] = c.Value(i)
	}
	return row
}

// SelectLayers keeps unlayered columns and the layered columns whose layer
// lies in [start, end]. The result equals reshaping directly with that range.
func (t Table) SelectLayers(start, end int) (Table, error) {
	lo := max(minLayer(t), 1)
	if start < lo {
		return Table{}, &RangeError{Bound: "start_block", Value: start, Min: lo, Max: maxLayer(t)}
	}
	if end < start {
		return Table{}, &RangeError{Bound: "end_block", Value: end, Min: start, Max: maxLayer(t)}
	}
	if hi := maxLayer(t); end > hi {
		return Table{}, &RangeError{Bound: "end_block", Value: end, Min: start, Max: hi}
	}
	out := Table{}
	for _, c := range t.Columns {
		if c.Layer == 0 || (c.Layer >= start && c.Layer <= end) {
			out.Columns = append(out.Columns, c.clone())
		}
	}
	return out, nil
}

// minLayer returns the lowest layer present, or 0 when t has no layered
// columns.
func minLayer(t Table) int {
	lo := 0
	for _, c := range t.Columns {
		if c.Layer > 0 && (lo == 0 || c.Layer < lo) {
			lo = c.Layer
		}
	}
	return lo
}

func maxLayer(t Table) int {
	hi := 0
	for _, c := range t.Columns {
		hi = max(hi, c.Layer)
	}
	return hi
}

func (t Table) index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// with returns a copy of t with col appended.
func (t Table) with(col Column) Table {
	out := t.Clone()
	out.Columns = append(out.Columns, col)
	return out
}

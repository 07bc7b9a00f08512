package tecplot

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/obswell-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklyBatch(t *testing.T) domain.Batch {
	t.Helper()
	table, err := domain.NewTable(
		domain.Column{Name: domain.ColMidWeekDate, Role: domain.RoleMidWeekDate, Strings: []string{"20020102", "20020109"}},
		domain.Column{Name: domain.ColISOYear, Role: domain.RoleISOYear, Floats: []float64{2002, 2002}},
		domain.Column{Name: domain.ColISOWeek, Role: domain.RoleISOWeek, Floats: []float64{1, 2}},
		domain.Column{Name: "depth_H2", Role: domain.RoleDepth, Variable: "H", Layer: 2, Floats: []float64{3.5, 5}},
	)
	require.NoError(t, err)
	return domain.Batch{Zone: "Baildon059", Table: table}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, weeklyBatch(t), DefaultFloatFormat))

	want := `VARIABLES = "date_mid_week","ISO_year","ISO_week","depth_H2"
ZONE T="Baildon059"
20020102,2002.000000,1.000000,3.500000
20020109,2002.000000,2.000000,5.000000
`
	assert.Equal(t, want, buf.String())
}

func TestEncode_TimesAndFormat(t *testing.T) {
	table, err := domain.NewTable(
		domain.Column{Name: domain.ColTime, Role: domain.RoleTime, Times: []time.Time{time.Date(2002, 1, 1, 6, 0, 0, 0, time.UTC)}},
		domain.Column{Name: "H1", Role: domain.RoleHead, Variable: "H", Layer: 1, Floats: []float64{101.25}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, domain.Batch{Zone: "w", Table: table}, "%.2f"))
	assert.Contains(t, buf.String(), "2002-01-01T06:00:00Z,101.25\n")
}

func TestWriter_Load(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(dir, "", slog.Default())

	require.Error(t, w.CheckReadiness(context.Background()), "folder does not exist yet")
	require.NoError(t, w.Load(context.Background(), weeklyBatch(t)))
	require.NoError(t, w.CheckReadiness(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "Baildon059.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `VARIABLES = "date_mid_week"`))
}

func TestDecode_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, weeklyBatch(t), DefaultFloatFormat))

	got, err := Decode(&buf, "Baildon059.csv", ',')
	require.NoError(t, err)

	assert.Equal(t, []string{"date_mid_week", "ISO_year", "ISO_week", "depth_H2"}, got.Names())

	depth, ok := got.Column("depth_H2")
	require.True(t, ok)
	assert.Equal(t, domain.RoleDepth, depth.Role)
	assert.Equal(t, 2, depth.Layer)
	if diff := cmp.Diff([]float64{3.5, 5}, depth.Floats); diff != "" {
		t.Errorf("depth mismatch (-want +got):\n%s", diff)
	}

	// Numeric-looking date text reads back as numbers.
	dates, _ := got.Column(domain.ColMidWeekDate)
	assert.Equal(t, domain.KindFloat, dates.Kind())
	assert.Equal(t, domain.RoleMidWeekDate, dates.Role)
}

func TestDecode_ObservedWhitespace(t *testing.T) {
	in := `TITLE = "G05MD001"
VARIABLES = "date" "DTGS"
ZONE T="G05MD001"
37257   2.10
37258   2.40
`
	got, err := Decode(strings.NewReader(in), "obs.dat", ' ')
	require.NoError(t, err)

	dtgs, _ := got.Column("DTGS")
	assert.Equal(t, []float64{2.1, 2.4}, dtgs.Floats)
	assert.Equal(t, domain.RoleOther, dtgs.Role)
}

func TestDecode_HeaderKeywordVariants(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"plural", `VARIABLES = "date","DTGS"`},
		{"singular", `VARIABLE = "date","DTGS"`},
		{"lower case singular", `variable="date","DTGS"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.header + "\n37257,2.10\n"
			got, err := Decode(strings.NewReader(in), "obs.csv", ',')
			require.NoError(t, err)
			assert.Equal(t, []string{"date", "DTGS"}, got.Names())
		})
	}
}

func TestDecode_CalendarColumn(t *testing.T) {
	in := "VARIABLES = \"time\",\"H1\"\nZONE T=\"w\"\n2002-01-01T00:00:00Z,1.0\n2002-01-02T00:00:00Z,2.0\n"
	got, err := Decode(strings.NewReader(in), "w.csv", ',')
	require.NoError(t, err)

	tc, _ := got.Column(domain.ColTime)
	require.Equal(t, domain.KindTime, tc.Kind())
	assert.Equal(t, domain.RoleTime, tc.Role)
	assert.Equal(t, time.Date(2002, 1, 2, 0, 0, 0, 0, time.UTC), tc.Times[1])
}

func TestEncodeComparison(t *testing.T) {
	c := domain.Comparison{
		Observed: domain.Series{Name: "DTGS", X: []float64{37257}, Y: []float64{2.1}},
		Simulated: []domain.Series{
			{Name: "depth_H2", X: []float64{37257, 37258}, Y: []float64{2, 2.5}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeComparison(&buf, c, "%.1f"))

	want := `VARIABLES = "date","DTGS"
ZONE T="DTGS"
37257.0,2.1
ZONE T="depth_H2"
37257.0,2.0
37258.0,2.5
`
	assert.Equal(t, want, buf.String())

	// Zones concatenate on read.
	got, err := Decode(&buf, "cmp.csv", ',')
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"no header", "1,2\n", domain.ErrFormat},
		{"empty", "", domain.ErrFormat},
		{"width", "VARIABLES = \"a\",\"b\"\n1,2,3\n", domain.ErrFormat},
		{"kind change", "VARIABLES = \"a\"\n1\nx\n", domain.ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in), "t.csv", ',')
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Decode(strings.NewReader("VARIABLES = \"a\"\n1\nx\n"), "t.csv", ',')
	var pe *domain.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
	assert.Equal(t, "a", pe.Column)
}

func TestReader_ReadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.csv")
	require.NoError(t, os.WriteFile(path, []byte("VARIABLES = \"time\",\"depth_H2\"\n0,1.5\n"), 0o600))

	got, err := NewReader(',').ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())

	_, err = NewReader(',').ReadTable(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

package xlsx

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/obswell-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriter_Load(t *testing.T) {
	table, err := domain.NewTable(
		domain.Column{Name: domain.ColMidWeekDate, Strings: []string{"20020102", "20020109"}},
		domain.Column{Name: domain.ColISOWeek, Role: domain.RoleISOWeek, Floats: []float64{1, 2}},
		domain.Column{Name: "depth_H2", Role: domain.RoleDepth, Floats: []float64{3.5, 5}},
	)
	require.NoError(t, err)

	dir := t.TempDir()
	w := NewWriter(dir, slog.Default())
	require.NoError(t, w.Load(context.Background(), domain.Batch{Zone: "Baildon059", Table: table}))

	f, err := excelize.OpenFile(filepath.Join(dir, "Baildon059.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Baildon059")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date_mid_week", "ISO_week", "depth_H2"}, rows[0])
	assert.Equal(t, []string{"20020102", "1", "3.5"}, rows[1])
	assert.Equal(t, []string{"20020109", "2", "5"}, rows[2])
}

func TestWriter_Load_Times(t *testing.T) {
	table, err := domain.NewTable(
		domain.Column{Name: domain.ColTime, Role: domain.RoleTime, Times: []time.Time{time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC)}},
	)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, NewWriter(dir, slog.Default()).Load(context.Background(), domain.Batch{Zone: "w", Table: table}))

	f, err := excelize.OpenFile(filepath.Join(dir, "w.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	raw, err := f.GetCellValue("w", "A2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "37257", raw, "instants are stored as date serials")
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		zone string
		want string
	}{
		{"Baildon059", "Baildon059"},
		{"ARB_QUAPo.observation_well_flow.Baildon059", "ARB_QUAPo.observation_well_flow"},
		{"a/b:c", "a_b_c"},
		{"", "Sheet1"},
	}
	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			assert.Equal(t, tt.want, SheetName(tt.zone))
		})
	}
}

package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		variable string
		layer    int
	}{
		{"time", RoleTime, "", 0},
		{"elapsed_time", RoleElapsed, "", 0},
		{"ISO_year", RoleISOYear, "", 0},
		{"ISO_week", RoleISOWeek, "", 0},
		{"date_mid_week", RoleMidWeekDate, "", 0},
		{"date_mid_week_numeric", RoleDateSerial, "", 0},
		{"H5", RoleHead, "H", 5},
		{"Z12", RoleElevation, "Z", 12},
		{"S3", RoleVariable, "S", 3},
		{"depth_H10", RoleDepth, "H", 10},
		{"DTGS", RoleOther, "", 0},
		{"depth_", RoleOther, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, variable, layer := InferColumn(tt.name)
			assert.Equal(t, tt.role, role)
			assert.Equal(t, tt.variable, variable)
			assert.Equal(t, tt.layer, layer)
		})
	}
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable(layered("H", 1, 1, 2), layered("Z", 1, 1))
	require.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewTable(layered("H", 1, 1), layered("H", 1, 2))
	require.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), `"H1"`)
}

func TestTable_CloneIsDeep(t *testing.T) {
	orig, err := NewTable(layered("H", 1, 1, 2))
	require.NoError(t, err)

	cp := orig.Clone()
	cp.Columns[0].Floats[0] = 99

	assert.Equal(t, []float64{1, 2}, orig.Columns[0].Floats)
}

func TestTable_Row(t *testing.T) {
	ts := time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC)
	table, err := NewTable(
		Column{Name: ColTime, Role: RoleTime, Times: []time.Time{ts}},
		layered("H", 1, 3.5),
		Column{Name: ColMidWeekDate, Strings: []string{"20020102"}},
	)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"time": ts, "H1": 3.5, "date_mid_week": "20020102"}, table.Row(0))
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "head", RoleHead.String())
	assert.Len(t, table.ColumnsByRole(RoleHead), 1)
}

func TestNewBatch_UsesClock(t *testing.T) {
	frozen := time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })

	table, err := NewTable(layered("H", 1, 1))
	require.NoError(t, err)

	b := NewBatch("Baildon059", table)
	assert.Equal(t, frozen, b.ProcessedAt)
	assert.Equal(t, "Baildon059", b.Zone)
}

func TestZoneFromPath(t *testing.T) {
	assert.Equal(t, "ARB_QUAPo.observation_well_flow.Baildon059",
		ZoneFromPath("/data/ARB_QUAPo.observation_well_flow.Baildon059.dat"))
	assert.Equal(t, "G05MD001", ZoneFromPath("G05MD001"))
}

package domain

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layered(variable string, layer int, values ...float64) Column {
	name := variable + strconv.Itoa(layer)
	return Column{Name: name, Role: variableRole(variable), Variable: variable, Layer: layer, Floats: values}
}

func TestDeriveDepth(t *testing.T) {
	in, err := NewTable(
		Column{Name: ColTime, Role: RoleTime, Floats: []float64{0}},
		layered("H", 5, 3.0),
		layered("Z", 5, 8.0),
		layered("H", 6, 5.0),
		layered("Z", 6, 10.0),
	)
	require.NoError(t, err)

	out, err := DeriveDepth(in)
	require.NoError(t, err)

	d5, ok := out.Column("depth_H5")
	require.True(t, ok)
	assert.Equal(t, []float64{7.0}, d5.Floats)
	assert.Equal(t, RoleDepth, d5.Role)
	assert.Equal(t, 5, d5.Layer)

	d6, ok := out.Column("depth_H6")
	require.True(t, ok)
	assert.Equal(t, []float64{5.0}, d6.Floats)

	assert.Equal(t, []string{"time", "H5", "Z5", "H6", "Z6", "depth_H5", "depth_H6"}, out.Names())
	assert.Len(t, in.Columns, 5, "input table must not change")
}

func TestDeriveDepth_SurfaceIsNumericallyHighestLayer(t *testing.T) {
	in, err := NewTable(
		layered("H", 9, 1.0, 2.0),
		layered("H", 10, 4.0, 6.0),
		layered("Z", 9, 50.0, 50.0),
		layered("Z", 10, 20.0, 20.0),
	)
	require.NoError(t, err)

	surface, err := SurfaceLayer(in)
	require.NoError(t, err)
	assert.Equal(t, 10, surface)

	out, err := DeriveDepth(in)
	require.NoError(t, err)
	d9, _ := out.Column("depth_H9")
	assert.Equal(t, []float64{19.0, 18.0}, d9.Floats)
	d10, _ := out.Column("depth_H10")
	assert.Equal(t, []float64{16.0, 14.0}, d10.Floats)
}

func TestDeriveDepth_MissingColumns(t *testing.T) {
	t.Run("no head columns", func(t *testing.T) {
		in, err := NewTable(layered("Z", 1, 1.0), layered("S", 1, 0.5))
		require.NoError(t, err)

		_, err = DeriveDepth(in)
		require.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("no surface elevation", func(t *testing.T) {
		in, err := NewTable(layered("H", 5, 1.0), layered("H", 6, 1.0), layered("Z", 5, 3.0))
		require.NoError(t, err)

		_, err = DeriveDepth(in)
		require.ErrorIs(t, err, ErrMissingField)
		assert.Contains(t, err.Error(), `"Z6"`)
	})
}

func TestDeriveDepth_FromReshapedFile(t *testing.T) {
	raw := parseTestFile(t, []string{"H", "S", "Z"}, 3, 2)
	table, err := Reshape(raw, Selection{StartBlock: 2})
	require.NoError(t, err)

	out, err := DeriveDepth(table)
	require.NoError(t, err)

	d2, ok := out.Column("depth_H2")
	require.True(t, ok)
	for step := range d2.Floats {
		want := cellValue(step, 3, 2) - cellValue(step, 2, 0)
		assert.Equal(t, want, d2.Floats[step])
	}
}

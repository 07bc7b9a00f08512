package domain

import "fmt"

// SurfaceLayer returns the highest layer that carries a head column. Layers
// are counted from the model bottom, so this is the layer nearest the land
// surface.
func SurfaceLayer(t Table) (int, error) {
	heads := t.ColumnsByRole(RoleHead)
	if len(heads) == 0 {
		return 0, missingField(VarHead+"<layer>", fmt.Sprintf("no head columns in %v", t.Names()))
	}
	surface := 0
	for _, h := range heads {
		surface = max(surface, h.Layer)
	}
	return surface, nil
}

// DeriveDepth appends depth_H<i> = Z<surface> - H<i> for every head column,
// where Z<surface> is the elevation of the surface layer.
func DeriveDepth(t Table) (Table, error) {
	surface, err := SurfaceLayer(t)
	if err != nil {
		return Table{}, err
	}

	var elev *Column
	for _, c := range t.ColumnsByRole(RoleElevation) {
		if c.Layer == surface {
			elev = &c
			break
		}
	}
	if elev == nil || elev.Kind() != KindFloat {
		return Table{}, missingField(fmt.Sprintf("%s%d", VarElevation, surface), "surface elevation")
	}

	out := t.Clone()
	for _, h := range t.ColumnsByRole(RoleHead) {
		if h.Kind() != KindFloat {
			return Table{}, fmt.Errorf("%w: head column %q holds %s values", ErrTypeMismatch, h.Name, h.Kind())
		}
		depth := Column{
			Name:     depthPrefix + h.Name,
			Role:     RoleDepth,
			Variable: h.Variable,
			Layer:    h.Layer,
			Floats:   make([]float64, len(h.Floats)),
		}
		for i, head := range h.Floats {
			depth.Floats[i] = elev.Floats[i] - head
		}
		out.Columns = append(out.Columns, depth)
	}
	return NewTable(out.Columns...)
}

package domain

import (
	"fmt"
	"strconv"
)

// DefaultVariables is the variable selection used when none is given:
// hydraulic head, saturation and elevation.
var DefaultVariables = []string{"H", "S", "Z"}

// Selection chooses which variables and which block (layer) range to
// extract. Blocks are 1-based and counted from the model bottom. Zero
// values select DefaultVariables and the full block range.
type Selection struct {
	Variables  []string
	StartBlock int
	EndBlock   int
}

// resolve fills defaults and validates the block range against blockCount.
func (s Selection) resolve(blockCount int) (Selection, error) {
	out := s
	if len(out.Variables) == 0 {
		out.Variables = DefaultVariables
	}
	if out.StartBlock == 0 {
		out.StartBlock = 1
	}
	if out.EndBlock == 0 {
		out.EndBlock = blockCount
	}
	switch {
	case out.StartBlock < 1 || out.StartBlock > blockCount:
		return Selection{}, &RangeError{Bound: "start_block", Value: out.StartBlock, Min: 1, Max: blockCount}
	case out.EndBlock > blockCount:
		return Selection{}, &RangeError{Bound: "end_block", Value: out.EndBlock, Min: out.StartBlock, Max: blockCount}
	case out.EndBlock < out.StartBlock:
		return Selection{}, &RangeError{Bound: "end_block", Value: out.EndBlock, Min: out.StartBlock, Max: blockCount}
	}
	return out, nil
}

// Reshape turns the block-ordered raw rows into one column per
// (block, variable) pair named "<variable><block>", preceded by the time
// column. Columns are ordered block-major: every selected variable of
// block N comes before any variable of block N+1.
func Reshape(raw RawBlockTable, sel Selection) (Table, error) {
	if raw.BlockCount < 1 {
		return Table{}, formatErrorf(raw.Source, "block count is %d", raw.BlockCount)
	}
	sel, err := sel.resolve(raw.BlockCount)
	if err != nil {
		return Table{}, err
	}

	steps := raw.Steps()
	if len(raw.TimeOffsets) != steps {
		return Table{}, fmt.Errorf("%w: %s: %d zone time offsets for %d time steps",
			ErrLengthMismatch, raw.Source, len(raw.TimeOffsets), steps)
	}

	fieldIdx := make([]int, len(sel.Variables))
	for i, v := range sel.Variables {
		if fieldIdx[i] = raw.headerIndex(v); fieldIdx[i] < 0 {
			return Table{}, missingField(v, fmt.Sprintf("header of %s is %v", raw.Source, raw.Header))
		}
	}

	cols := make([]Column, 0, 1+(sel.EndBlock-sel.StartBlock+1)*len(sel.Variables))
	cols = append(cols, Column{Name: ColTime, Role: RoleTime, Floats: append([]float64(nil), raw.TimeOffsets...)})

	for block := sel.StartBlock; block <= sel.EndBlock; block++ {
		for i, v := range sel.Variables {
			col := Column{
				Name:     v + strconv.Itoa(block),
				Role:     variableRole(v),
				Variable: v,
				Layer:    block,
				Floats:   make([]float64, steps),
			}
			for step := 0; step < steps; step++ {
				cell := raw.Rows[block-1+step*raw.BlockCount][fieldIdx[i]]
				f, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return Table{}, &ParseError{Source: raw.Source, Column: col.Name, Row: step, Value: cell}
				}
				col.Floats[step] = f
			}
			cols = append(cols, col)
		}
	}
	return NewTable(cols...)
}

package cell

import "fmt"

// CuboidPeriodicCells is a cuboid cell system that takes periodic boundary
// conditions and translational invariance into account. Nearby sets wrap
// around the box, every cell has a neighbor in every direction, and ordered
// cell pairs reduce to a canonical separation via RelativeCell/Translate.
//
// The zero cell is the cell whose minimum corner is the box origin.
type CuboidPeriodicCells struct {
	CuboidCells
}

// NewCuboidPeriodicCells builds the periodic grid for the given geometry.
// Arguments match NewCuboidCells.
func NewCuboidPeriodicCells(geometry *Geometry, cellsPerSide []int, neighborLayers int) (*CuboidPeriodicCells, error) {
	base, err := newCuboidCells(geometry, cellsPerSide, neighborLayers, true)
	if err != nil {
		return nil, err
	}
	return &CuboidPeriodicCells{CuboidCells: *base}, nil
}

// NeighborCell returns the single-step neighbor of the cell along the given
// axis. In a periodic grid the neighbor always exists.
func (c *CuboidPeriodicCells) NeighborCell(cell *Cell, axis int, positive bool) *Cell {
	if axis < 0 || axis >= c.geometry.Dimension() {
		panic(fmt.Sprintf("NeighborCell: axis %d out of range", axis))
	}
	step := -1
	if positive {
		step = 1
	}
	index := 0
	for d, entry := range cell.identifier {
		if d == axis {
			entry = modulo(entry+step, c.cellsPerSide[d])
		}
		index += entry * c.cumulative[d]
	}
	return c.cells[index]
}

// ZeroCell returns the cell with the box origin as its minimum corner.
func (c *CuboidPeriodicCells) ZeroCell() *Cell {
	return c.cells[0]
}

// RelativeCell returns the cell that has the same periodic-corrected offset
// from the zero cell as the given cell has from the reference cell. Two cell
// pairs related by a common translation map onto the same relative cell, so
// the result serves as a translation-invariant separation index.
// Translate is the exact inverse.
func (c *CuboidPeriodicCells) RelativeCell(cell, reference *Cell) *Cell {
	position := make([]float64, c.geometry.Dimension())
	for d := range position {
		center := (cell.maxCorner[d] + cell.minCorner[d]) / 2.0
		position[d] = c.geometry.CorrectPositionEntry(center-reference.minCorner[d], d)
	}
	return c.PositionToCell(position)
}

// Translate returns the cell at the offset of the relative cell (measured
// from the zero cell) from the given cell. RelativeCell is the exact inverse.
func (c *CuboidPeriodicCells) Translate(cell, relative *Cell) *Cell {
	position := make([]float64, c.geometry.Dimension())
	for d := range position {
		center := (cell.maxCorner[d] + cell.minCorner[d]) / 2.0
		position[d] = c.geometry.CorrectPositionEntry(center+relative.minCorner[d], d)
	}
	return c.PositionToCell(position)
}

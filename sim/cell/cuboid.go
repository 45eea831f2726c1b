package cell

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// CuboidCells decomposes the simulation box into a regular grid of cuboids.
// The cell with the box origin as its minimum corner has the identifier
// (0,...,0); identifiers count up axis by axis like matrix indices with the
// zero index leftmost.
//
// Each cell has the cells within neighborLayers grid steps in every axis as
// its nearby cells, so at most (2*neighborLayers+1)^dimension of them. At a
// box border the nearby set is clipped; the periodic variant in periodic.go
// wraps instead.
type CuboidCells struct {
	geometry       *Geometry
	cellsPerSide   []int
	sideLengths    []float64
	neighborLayers int
	cumulative     []int
	cells          []*Cell
	nearby         [][]*Cell
	wrap           bool
}

// NewCuboidCells builds the non-periodic grid for the given geometry.
// If fewer cells-per-side values than the dimension are given, the first
// value is reused for the remaining axes.
func NewCuboidCells(geometry *Geometry, cellsPerSide []int, neighborLayers int) (*CuboidCells, error) {
	return newCuboidCells(geometry, cellsPerSide, neighborLayers, false)
}

func newCuboidCells(geometry *Geometry, cellsPerSide []int, neighborLayers int, wrap bool) (*CuboidCells, error) {
	if geometry == nil {
		return nil, fmt.Errorf("cells: geometry must not be nil")
	}
	dimension := geometry.Dimension()
	if len(cellsPerSide) == 0 || len(cellsPerSide) > dimension {
		return nil, fmt.Errorf("cells: number of cells-per-side values is zero or exceeds the dimension %d", dimension)
	}
	if neighborLayers < 0 {
		return nil, fmt.Errorf("cells: number of neighbor layers must be greater than or equal to zero, got %d", neighborLayers)
	}

	c := &CuboidCells{
		geometry:       geometry,
		cellsPerSide:   make([]int, dimension),
		sideLengths:    make([]float64, dimension),
		neighborLayers: neighborLayers,
		cumulative:     make([]int, dimension),
		wrap:           wrap,
	}
	for d := 0; d < dimension; d++ {
		perSide := cellsPerSide[0]
		if d < len(cellsPerSide) {
			perSide = cellsPerSide[d]
		}
		if perSide <= 0 {
			return nil, fmt.Errorf("cells: cells per side must be positive, got %d on axis %d", perSide, d)
		}
		c.cellsPerSide[d] = perSide
		c.sideLengths[d] = geometry.Length(d) / float64(perSide)
	}

	c.cumulative[0] = 1
	for d := 1; d < dimension; d++ {
		c.cumulative[d] = c.cumulative[d-1] * c.cellsPerSide[d-1]
	}
	numberOfCells := c.cumulative[dimension-1] * c.cellsPerSide[dimension-1]

	c.cells = make([]*Cell, 0, numberOfCells)
	identifier := make([]int, dimension)
	for index := 0; index < numberOfCells; index++ {
		storedIdentifier := make([]int, dimension)
		copy(storedIdentifier, identifier)
		minCorner := make([]float64, dimension)
		maxCorner := make([]float64, dimension)
		for d := 0; d < dimension; d++ {
			minCorner[d] = c.tightenLowerCorner(identifier[d], d)
			maxCorner[d] = c.tightenUpperCorner(identifier[d], d)
		}
		c.cells = append(c.cells, newCell(index, storedIdentifier, minCorner, maxCorner))

		// Advance the identifier odometer.
		for d := 0; d < dimension; d++ {
			identifier[d]++
			if identifier[d] < c.cellsPerSide[d] {
				break
			}
			identifier[d] = 0
		}
	}

	c.buildNearby()
	logrus.Debugf("Constructed cell system with %d cells (%v per side, %d neighbor layers, wrap=%v)",
		numberOfCells, c.cellsPerSide, neighborLayers, wrap)
	return c, nil
}

// tightenLowerCorner returns the smallest representable position that still
// truncates onto the cell index on the given axis. Naive arithmetic may land
// one cell too low or too high at the boundary, so the position is stepped
// ULP by ULP until the round trip holds.
func (c *CuboidCells) tightenLowerCorner(index int, axis int) float64 {
	side := c.sideLengths[axis]
	position := float64(index) * side
	// int() truncates towards zero, so the origin is already exact.
	if position <= 0.0 {
		return 0.0
	}
	for int(position/side) == index {
		position = math.Nextafter(position, math.Inf(-1))
	}
	for int(position/side) < index {
		position = math.Nextafter(position, math.Inf(1))
	}
	return position
}

// tightenUpperCorner returns the largest representable position that still
// truncates onto the cell index on the given axis.
func (c *CuboidCells) tightenUpperCorner(index int, axis int) float64 {
	side := c.sideLengths[axis]
	position := float64(index+1) * side
	for int(position/side) == index {
		position = math.Nextafter(position, math.Inf(1))
	}
	for int(position/side) > index {
		position = math.Nextafter(position, math.Inf(-1))
	}
	return position
}

func (c *CuboidCells) buildNearby() {
	dimension := c.geometry.Dimension()
	span := 2*c.neighborLayers + 1
	offsets := make([]int, dimension)
	c.nearby = make([][]*Cell, len(c.cells))
	for _, owner := range c.cells {
		for d := range offsets {
			offsets[d] = -c.neighborLayers
		}
		seen := make(map[int]bool, intPow(span, dimension))
		var nearby []*Cell
		for {
			index, ok := c.offsetIndex(owner, offsets)
			if ok && !seen[index] {
				seen[index] = true
				nearby = append(nearby, c.cells[index])
			}
			carried := false
			for d := 0; d < dimension; d++ {
				offsets[d]++
				if offsets[d] <= c.neighborLayers {
					carried = true
					break
				}
				offsets[d] = -c.neighborLayers
			}
			if !carried {
				break
			}
		}
		c.nearby[owner.index] = nearby
	}
}

// offsetIndex resolves the dense index of the cell displaced from owner by
// the given per-axis offsets. For a non-periodic grid the offset is clipped:
// the second return value is false when it leaves the box.
func (c *CuboidCells) offsetIndex(owner *Cell, offsets []int) (int, bool) {
	index := 0
	for d, offset := range offsets {
		entry := owner.identifier[d] + offset
		if c.wrap {
			entry = modulo(entry, c.cellsPerSide[d])
		} else if entry < 0 || entry >= c.cellsPerSide[d] {
			return 0, false
		}
		index += entry * c.cumulative[d]
	}
	return index, true
}

// Geometry returns the box this grid decomposes.
func (c *CuboidCells) Geometry() *Geometry {
	return c.geometry
}

// Cells returns all cells in dense-index order.
// The returned slice MUST NOT be modified.
func (c *CuboidCells) Cells() []*Cell {
	return c.cells
}

// NumCells returns the total number of cells of the grid.
func (c *CuboidCells) NumCells() int {
	return len(c.cells)
}

// CellsPerSide returns the per-axis cell counts.
// The returned slice MUST NOT be modified.
func (c *CuboidCells) CellsPerSide() []int {
	return c.cellsPerSide
}

// NeighborLayers returns the neighbor-layer radius of the nearby sets.
func (c *CuboidCells) NeighborLayers() int {
	return c.neighborLayers
}

// PositionToCell maps an in-box position onto its owning cell.
// Panics when the position lies outside the box; callers owe in-box
// positions, so an out-of-box position is an upstream bug.
func (c *CuboidCells) PositionToCell(position []float64) *Cell {
	if len(position) != c.geometry.Dimension() {
		panic(fmt.Sprintf("PositionToCell: position %v does not match dimension %d", position, c.geometry.Dimension()))
	}
	index := 0
	for d, entry := range position {
		if entry < 0.0 || entry > c.geometry.Length(d) {
			panic(fmt.Sprintf("PositionToCell: position %v outside the box on axis %d", position, d))
		}
		k := int(entry / c.sideLengths[d])
		// The upper box edge belongs to the last cell.
		if k >= c.cellsPerSide[d] {
			k = c.cellsPerSide[d] - 1
		}
		index += k * c.cumulative[d]
	}
	return c.cells[index]
}

// NearbyCells returns the precomputed nearby cells of the given cell.
// The returned slice MUST NOT be modified.
func (c *CuboidCells) NearbyCells(cell *Cell) []*Cell {
	return c.nearby[cell.index]
}

// NeighborCell returns the single-step neighbor of the cell along the given
// axis, or nil when the cell sits at the box border in that direction.
func (c *CuboidCells) NeighborCell(cell *Cell, axis int, positive bool) *Cell {
	if axis < 0 || axis >= c.geometry.Dimension() {
		panic(fmt.Sprintf("NeighborCell: axis %d out of range", axis))
	}
	step := -1
	if positive {
		step = 1
	}
	entry := cell.identifier[axis] + step
	if entry < 0 || entry >= c.cellsPerSide[axis] {
		return nil
	}
	return c.cells[cell.index+step*c.cumulative[axis]]
}

func modulo(value, n int) int {
	value %= n
	if value < 0 {
		value += n
	}
	return value
}

func intPow(base, exponent int) int {
	result := 1
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}

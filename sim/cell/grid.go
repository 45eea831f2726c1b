package cell

// Grid is a fixed decomposition of the simulation box into cells.
// Implementations are constructed once at startup and are read-only for the
// duration of a run.
type Grid interface {
	// Geometry returns the box this grid decomposes.
	Geometry() *Geometry
	// Cells returns all cells of the grid in dense-index order.
	Cells() []*Cell
	// PositionToCell maps an in-box position onto its owning cell in O(1).
	// It panics when the position lies outside the box.
	PositionToCell(position []float64) *Cell
	// NearbyCells returns the precomputed cells within the grid's
	// neighbor-layer radius of the given cell, including the cell itself.
	NearbyCells(cell *Cell) []*Cell
	// NeighborCell returns the single-step neighbor along one axis, or nil
	// when the neighbor does not exist at a non-periodic boundary.
	NeighborCell(cell *Cell, axis int, positive bool) *Cell
}

// PeriodicGrid extends Grid with wraparound neighbor lookup and the cell
// translation arithmetic that reduces any ordered cell pair to a canonical
// separation under periodic boundaries.
type PeriodicGrid interface {
	Grid
	// ZeroCell returns the cell whose minimum corner is the box origin.
	ZeroCell() *Cell
	// RelativeCell maps the pair (cell, reference) onto the cell at the same
	// periodic-corrected offset from the zero cell. Translate is its inverse.
	RelativeCell(cell, reference *Cell) *Cell
	// Translate returns the cell at the offset of the relative cell (as
	// measured from the zero cell) from the given cell.
	Translate(cell, relative *Cell) *Cell
}

package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestPeriodicGrid(t *testing.T) *CuboidPeriodicCells {
	t.Helper()
	geometry, err := NewGeometry([]float64{1.0, 2.0})
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	grid, err := NewCuboidPeriodicCells(geometry, []int{4, 5}, 1)
	if err != nil {
		t.Fatalf("NewCuboidPeriodicCells: %v", err)
	}
	return grid
}

func TestCuboidPeriodicCells_ZeroCell(t *testing.T) {
	// GIVEN the periodic 4x5 fixture grid
	grid := newTestPeriodicGrid(t)

	// THEN the zero cell has the box origin as its minimum corner
	zero := grid.ZeroCell()
	assert.Equal(t, []int{0, 0}, zero.Identifier())
	assert.Equal(t, []float64{0.0, 0.0}, zero.MinCorner())
}

func TestCuboidPeriodicCells_NeighborCellWraps(t *testing.T) {
	grid := newTestPeriodicGrid(t)

	// Stepping over the border wraps to the opposite side of the box.
	first := grid.Cells()[0]
	assert.Equal(t, []int{3, 0}, grid.NeighborCell(first, 0, false).Identifier())
	assert.Equal(t, []int{0, 4}, grid.NeighborCell(first, 1, false).Identifier())
	last := grid.Cells()[grid.NumCells()-1]
	assert.Equal(t, []int{0, 4}, grid.NeighborCell(last, 0, true).Identifier())
	assert.Equal(t, []int{3, 0}, grid.NeighborCell(last, 1, true).Identifier())
}

func TestCuboidPeriodicCells_NearbyCellsWrap(t *testing.T) {
	// GIVEN the periodic fixture grid with one neighbor layer
	grid := newTestPeriodicGrid(t)

	// THEN every cell, border cells included, has the full 3x3 nearby block
	for _, owner := range grid.Cells() {
		assert.Len(t, grid.NearbyCells(owner), 9, "nearby cells of %v", owner)
		assert.Contains(t, grid.NearbyCells(owner), owner)
	}

	// AND the nearby relation stays symmetric under wrapping
	for _, owner := range grid.Cells() {
		for _, nearby := range grid.NearbyCells(owner) {
			assert.Contains(t, grid.NearbyCells(nearby), owner,
				"nearby relation of %v and %v", owner, nearby)
		}
	}
}

func TestCuboidPeriodicCells_SmallGridNearbyDeduplicates(t *testing.T) {
	// GIVEN a periodic grid with fewer than 2*layers+1 cells on an axis
	geometry, err := NewGeometry([]float64{1.0, 1.0})
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	grid, err := NewCuboidPeriodicCells(geometry, []int{2, 3}, 1)
	if err != nil {
		t.Fatalf("NewCuboidPeriodicCells: %v", err)
	}

	// THEN wrapped offsets that reach the same cell are reported once
	for _, owner := range grid.Cells() {
		assert.Len(t, grid.NearbyCells(owner), 6, "nearby cells of %v", owner)
	}
}

func TestCuboidPeriodicCells_TwoNeighborLayers(t *testing.T) {
	// GIVEN the 4x5 grid with two neighbor layers
	geometry, err := NewGeometry([]float64{1.0, 2.0})
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	grid, err := NewCuboidPeriodicCells(geometry, []int{4, 5}, 2)
	if err != nil {
		t.Fatalf("NewCuboidPeriodicCells: %v", err)
	}

	// THEN the 5x5 offset block collapses to 20 distinct cells, since the
	// first axis wraps onto itself after 4 steps
	assert.Equal(t, 20, grid.NumCells())
	for _, owner := range grid.Cells() {
		nearby := grid.NearbyCells(owner)
		assert.LessOrEqual(t, len(nearby), 25)
		assert.Len(t, nearby, 20, "nearby cells of %v", owner)
	}
}

func TestCuboidPeriodicCells_RelativeCellIsTranslationInvariant(t *testing.T) {
	// GIVEN the periodic fixture grid
	grid := newTestPeriodicGrid(t)
	zero := grid.ZeroCell()

	// THEN shifting both cells of a pair by a common offset keeps the
	// relative cell fixed
	for _, cell := range grid.Cells() {
		want := grid.RelativeCell(cell, zero)
		for _, reference := range grid.Cells() {
			shifted := grid.Translate(cell, grid.RelativeCell(reference, zero))
			assert.Same(t, want, grid.RelativeCell(shifted, reference),
				"relative cell of %v and %v", shifted, reference)
		}
	}
}

func TestCuboidPeriodicCells_TranslateInvertsRelativeCell(t *testing.T) {
	// GIVEN the periodic fixture grid
	grid := newTestPeriodicGrid(t)

	// THEN Translate is the exact inverse of RelativeCell over all pairs
	for _, cell := range grid.Cells() {
		for _, reference := range grid.Cells() {
			relative := grid.RelativeCell(cell, reference)
			assert.Same(t, cell, grid.Translate(reference, relative),
				"pair %v, %v with relative cell %v", cell, reference, relative)
		}
	}
}

func TestCuboidPeriodicCells_RelativeCellOfSelfIsZero(t *testing.T) {
	grid := newTestPeriodicGrid(t)
	for _, cell := range grid.Cells() {
		assert.Same(t, grid.ZeroCell(), grid.RelativeCell(cell, cell))
	}
}

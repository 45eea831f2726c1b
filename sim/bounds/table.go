package bounds

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ecmc-sim/ecmc-sim/sim/cell"
	"github.com/ecmc-sim/ecmc-sim/sim/walker"
)

// CellBoundTable stores, for every non-excluded cell separation and every
// axis, an upper bound (and optionally a negated lower bound) on the
// directional derivative of the interaction potential. Excluded separations
// are the nearby cells of the zero cell: interactions at those separations
// are handled by exact pairwise event handlers and must never be sampled by
// the cell-veto mechanism.
//
// The table is built once per (potential, charge configuration) and is
// immutable afterwards; it is shared read-only by all veto handlers of that
// interaction. Values become stale only under full grid reconstruction.
type CellBoundTable struct {
	grid        cell.PeriodicGrid
	dimension   int
	hasLower    bool
	upper       map[int][]float64
	negLower    map[int][]float64
	separations []*cell.Cell
	excluded    map[int]bool
}

// NewCellBoundTable queries the estimator once per non-excluded separation
// and axis with the separation's geometric extent. The extent spans from
// (separation min corner - zero cell max corner) to (separation max corner -
// zero cell min corner): every concrete pair of positions realizing the
// separation lies inside it. calculateLowerBound must be set whenever unit
// charges can have either sign.
func NewCellBoundTable(grid cell.PeriodicGrid, estimator Estimator, calculateLowerBound bool) (*CellBoundTable, error) {
	if grid == nil {
		return nil, fmt.Errorf("bound table: a periodic cell system is required")
	}
	if estimator == nil {
		return nil, fmt.Errorf("bound table: estimator must not be nil")
	}

	dimension := grid.Geometry().Dimension()
	t := &CellBoundTable{
		grid:      grid,
		dimension: dimension,
		hasLower:  calculateLowerBound,
		upper:     make(map[int][]float64),
		excluded:  make(map[int]bool),
	}
	if calculateLowerBound {
		t.negLower = make(map[int][]float64)
	}

	zero := grid.ZeroCell()
	for _, nearby := range grid.NearbyCells(zero) {
		t.excluded[nearby.Index()] = true
	}

	logrus.Infof("Initializing cell bound table for %d cells (%d excluded separations)",
		len(grid.Cells()), len(t.excluded))
	for _, owner := range grid.Cells() {
		if t.excluded[owner.Index()] {
			continue
		}
		separation := grid.RelativeCell(owner, zero)
		lowerCorner := make([]float64, dimension)
		upperCorner := make([]float64, dimension)
		for d := 0; d < dimension; d++ {
			lowerCorner[d] = owner.MinCorner()[d] - zero.MaxCorner()[d]
			upperCorner[d] = owner.MaxCorner()[d] - zero.MinCorner()[d]
		}

		upperBounds := make([]float64, dimension)
		var negLowerBounds []float64
		if calculateLowerBound {
			negLowerBounds = make([]float64, dimension)
		}
		for axis := 0; axis < dimension; axis++ {
			upperBound, lowerBound := estimator.DerivativeBound(lowerCorner, upperCorner, axis, calculateLowerBound)
			upperBounds[axis] = upperBound
			if calculateLowerBound {
				// The negated lower bound is the event rate of a
				// negative-charge-product active unit.
				negLowerBounds[axis] = -lowerBound
			}
		}
		t.upper[separation.Index()] = upperBounds
		if calculateLowerBound {
			t.negLower[separation.Index()] = negLowerBounds
		}
		t.separations = append(t.separations, separation)
	}
	logrus.Infof("Finished initialization of the cell bound table (%d separations)", len(t.separations))
	return t, nil
}

// Separations returns the non-excluded cell separations in grid order.
// The returned slice MUST NOT be modified.
func (t *CellBoundTable) Separations() []*cell.Cell {
	return t.separations
}

// HasLowerBounds reports whether lower bounds were calculated.
func (t *CellBoundTable) HasLowerBounds() bool {
	return t.hasLower
}

// IsExcluded reports whether the given separation is excluded from the
// cell-veto mechanism.
func (t *CellBoundTable) IsExcluded(separation *cell.Cell) bool {
	return t.excluded[separation.Index()]
}

// UpperBound returns the upper derivative bound of the separation and axis.
// Panics for excluded separations, which must never be sampled.
func (t *CellBoundTable) UpperBound(separation *cell.Cell, axis int) float64 {
	values, ok := t.upper[separation.Index()]
	if !ok {
		panic(fmt.Sprintf("UpperBound: separation %v is excluded from the bound table", separation))
	}
	return values[axis]
}

// NegatedLowerBound returns the negated lower derivative bound of the
// separation and axis. Panics when the table was built without lower bounds
// or for excluded separations.
func (t *CellBoundTable) NegatedLowerBound(separation *cell.Cell, axis int) float64 {
	if !t.hasLower {
		panic("NegatedLowerBound: bound table was built without lower bounds")
	}
	values, ok := t.negLower[separation.Index()]
	if !ok {
		panic(fmt.Sprintf("NegatedLowerBound: separation %v is excluded from the bound table", separation))
	}
	return values[axis]
}

// UpperRateItems returns the walker items for the given axis, one per
// non-excluded separation, with the upper bounds clamped at zero as rates.
// The item index is the dense grid index of the separation cell.
func (t *CellBoundTable) UpperRateItems(axis int) []walker.Item {
	items := make([]walker.Item, 0, len(t.separations))
	for _, separation := range t.separations {
		rate := t.upper[separation.Index()][axis]
		if rate < 0.0 {
			rate = 0.0
		}
		items = append(items, walker.Item{Index: separation.Index(), Rate: rate})
	}
	return items
}

// NegatedLowerRateItems returns the walker items for the given axis built
// from the negated lower bounds, clamped at zero.
func (t *CellBoundTable) NegatedLowerRateItems(axis int) []walker.Item {
	if !t.hasLower {
		panic("NegatedLowerRateItems: bound table was built without lower bounds")
	}
	items := make([]walker.Item, 0, len(t.separations))
	for _, separation := range t.separations {
		rate := t.negLower[separation.Index()][axis]
		if rate < 0.0 {
			rate = 0.0
		}
		items = append(items, walker.Item{Index: separation.Index(), Rate: rate})
	}
	return items
}

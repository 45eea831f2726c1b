package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecmc-sim/ecmc-sim/sim/cell"
	"github.com/ecmc-sim/ecmc-sim/sim/internal/testutil"
)

func newBoundaryFixture(t *testing.T) (cell.PeriodicGrid, *CellBoundaryEventHandler) {
	t.Helper()
	geometry, err := cell.NewGeometry([]float64{1.0, 2.0})
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	grid, err := cell.NewCuboidPeriodicCells(geometry, []int{4, 5}, 1)
	if err != nil {
		t.Fatalf("NewCuboidPeriodicCells: %v", err)
	}
	handler, err := NewCellBoundaryEventHandler(grid, 1)
	if err != nil {
		t.Fatalf("NewCellBoundaryEventHandler: %v", err)
	}
	return grid, handler
}

func TestCellBoundaryEventHandler_ConstructionErrors(t *testing.T) {
	grid, _ := newBoundaryFixture(t)
	_, err := NewCellBoundaryEventHandler(nil, 1)
	assert.Error(t, err)
	_, err = NewCellBoundaryEventHandler(grid, 0)
	assert.Error(t, err)
}

func TestCellBoundaryEventHandler_CrossingIntoTheNextCell(t *testing.T) {
	// GIVEN an active unit moving along axis 0 inside cell (1,1)
	grid, handler := newBoundaryFixture(t)
	unit := &Unit{
		Identifier: 0,
		Position:   []float64{0.3, 0.5},
		Velocity:   []float64{1.0, 0.0},
		Charge:     1.0,
	}

	// WHEN the candidate time is requested
	eventTime := handler.SendEventTime([]*Unit{unit})

	// THEN the unit reaches the wall of cell (2,1) after 0.2 time units
	testutil.AssertWithinAbs(t, "event time", 0.2, eventTime.Float(), 1.0e-12)
	assert.Equal(t, []int{2, 1}, handler.TargetCell().Identifier())

	// AND the out-state lands exactly on the target cell's minimum corner
	outState := handler.SendOutState()
	assert.Len(t, outState, 1)
	assert.Equal(t, handler.TargetCell().MinCorner()[0], outState[0].Position[0])
	assert.Same(t, handler.TargetCell(), grid.PositionToCell(outState[0].Position))
	assert.Equal(t, 0, outState[0].TimeStamp.Compare(eventTime))
}

func TestCellBoundaryEventHandler_CrossingWrapsAtTheBorder(t *testing.T) {
	// GIVEN an active unit in the last cell along its axis of motion
	grid, handler := newBoundaryFixture(t)
	unit := &Unit{
		Identifier: 0,
		Position:   []float64{0.9, 0.5},
		Velocity:   []float64{1.0, 0.0},
		Charge:     1.0,
	}

	// WHEN the candidate is resolved
	eventTime := handler.SendEventTime([]*Unit{unit})
	outState := handler.SendOutState()

	// THEN the crossing wraps onto the opposite side of the box
	testutil.AssertWithinAbs(t, "event time", 0.1, eventTime.Float(), 1.0e-12)
	assert.Equal(t, []int{0, 1}, handler.TargetCell().Identifier())
	assert.Equal(t, 0.0, outState[0].Position[0])
	assert.Same(t, handler.TargetCell(), grid.PositionToCell(outState[0].Position))
}

func TestCellBoundaryEventHandler_SecondAxis(t *testing.T) {
	// GIVEN motion along axis 1
	_, handler := newBoundaryFixture(t)
	unit := &Unit{
		Identifier: 0,
		Position:   []float64{0.3, 0.5},
		Velocity:   []float64{0.0, 2.0},
		Charge:     1.0,
	}

	// WHEN the candidate time is requested
	eventTime := handler.SendEventTime([]*Unit{unit})

	// THEN the wall at 0.8 is reached after 0.15 time units at speed 2
	testutil.AssertWithinAbs(t, "event time", 0.15, eventTime.Float(), 1.0e-12)
	assert.Equal(t, []int{1, 2}, handler.TargetCell().Identifier())
}

func TestCellBoundaryEventHandler_Panics(t *testing.T) {
	_, handler := newBoundaryFixture(t)

	// Only standard velocities are supported: one axis, positive direction.
	passive := &Unit{Identifier: 0, Position: []float64{0.3, 0.5}}
	assert.Panics(t, func() { handler.SendEventTime([]*Unit{passive}) })
	negative := &Unit{Identifier: 0, Position: []float64{0.3, 0.5}, Velocity: []float64{-1.0, 0.0}}
	assert.Panics(t, func() { handler.SendEventTime([]*Unit{negative}) })
	diagonal := &Unit{Identifier: 0, Position: []float64{0.3, 0.5}, Velocity: []float64{1.0, 1.0}}
	assert.Panics(t, func() { handler.SendEventTime([]*Unit{diagonal}) })
	zero := &Unit{Identifier: 0, Position: []float64{0.3, 0.5}, Velocity: []float64{0.0, 0.0}}
	assert.Panics(t, func() { handler.SendEventTime([]*Unit{zero}) })

	// An out-state needs a preceding candidate request.
	assert.Panics(t, func() { handler.SendOutState() })
}

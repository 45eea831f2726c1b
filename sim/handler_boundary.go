package sim

import (
	"fmt"

	"github.com/ecmc-sim/ecmc-sim/sim/cell"
)

// CellBoundaryEventHandler triggers an event when the active unit crosses a
// cell boundary of the cell-occupancy system. The surrounding scheduler owes
// this event priority over any cell-veto event acting on stale occupancy:
// committing the crossing is what keeps the occupancy exact between events.
//
// The handler requires a periodic cell system so that every cell has a
// neighbor in the direction of motion.
type CellBoundaryEventHandler struct {
	geometry  *cell.Geometry
	grid      cell.PeriodicGrid
	cellLevel int

	unit       *Unit
	axis       int
	eventTime  Time
	targetCell *cell.Cell
}

// NewCellBoundaryEventHandler creates the handler over the given periodic
// grid and cell level.
func NewCellBoundaryEventHandler(grid cell.PeriodicGrid, cellLevel int) (*CellBoundaryEventHandler, error) {
	if grid == nil {
		return nil, fmt.Errorf("boundary handler: a periodic cell system is required")
	}
	if cellLevel < 1 {
		return nil, fmt.Errorf("boundary handler: cell level must be at least 1, got %d", cellLevel)
	}
	return &CellBoundaryEventHandler{geometry: grid.Geometry(), grid: grid, cellLevel: cellLevel}, nil
}

// SendEventTime returns the candidate time at which the active unit reaches
// the boundary of its current cell. The in-state must be the branch of the
// single active unit, moving in positive direction along one axis.
func (h *CellBoundaryEventHandler) SendEventTime(inState []*Unit) Time {
	if len(inState) != 1 {
		panic(fmt.Sprintf("SendEventTime: boundary handler expects exactly one branch, got %d", len(inState)))
	}
	unit := inState[0]
	h.unit = unit
	h.axis = activeAxis(unit)

	owner := h.grid.PositionToCell(unit.Position)
	neighbor := h.grid.NeighborCell(owner, h.axis, true)
	separation := neighbor.MinCorner()[h.axis] - unit.Position[h.axis]
	if separation < 0.0 {
		separation = h.geometry.NextImage(separation, h.axis)
	}
	h.targetCell = neighbor
	h.eventTime = unit.TimeStamp.Add(separation / unit.Velocity[h.axis])
	return h.eventTime
}

// SendOutState returns the active unit advanced exactly onto the minimum
// corner of the target cell. The corner is a representable position inside
// the target cell (round-trip invariant of the grid), so the committed
// position and the occupancy update cannot disagree about the cell.
func (h *CellBoundaryEventHandler) SendOutState() []*Unit {
	if h.unit == nil {
		panic("SendOutState: no candidate event time was requested")
	}
	unit := h.unit
	h.unit = nil
	unit.AdvanceTo(h.eventTime, h.geometry)
	unit.Position[h.axis] = h.targetCell.MinCorner()[h.axis]
	return []*Unit{unit}
}

// TargetCell returns the cell entered by the crossing of the last candidate.
func (h *CellBoundaryEventHandler) TargetCell() *cell.Cell {
	return h.targetCell
}

// activeAxis returns the single axis along which the unit moves in positive
// direction. The cell systems of this simulator only support standard
// velocities; anything else is an upstream bug.
func activeAxis(unit *Unit) int {
	if unit.Velocity == nil {
		panic(fmt.Sprintf("unit %d has no velocity", unit.Identifier))
	}
	axis := -1
	for d, component := range unit.Velocity {
		if component == 0.0 {
			continue
		}
		if component < 0.0 || axis != -1 {
			panic(fmt.Sprintf("unit %d must move in positive direction along a single axis, got velocity %v",
				unit.Identifier, unit.Velocity))
		}
		axis = d
	}
	if axis == -1 {
		panic(fmt.Sprintf("unit %d has zero velocity where motion is required", unit.Identifier))
	}
	return axis
}

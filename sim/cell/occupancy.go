package cell

import (
	"fmt"
	"sort"
)

// ActiveCell pairs a currently active unit with the cell it occupies.
type ActiveCell struct {
	Cell *Cell
	Unit int
}

// CellOccupancy tracks, per cell, at most one resident unit identifier plus
// the surplus identifiers that cannot be placed one-per-cell (more units than
// cells, or a cell already claimed). Active units are tracked separately and
// are never counted as residents.
//
// The occupancy is event-driven: it is updated exactly when a committed
// boundary-crossing event moves an active unit into a new cell
// (RecordCrossing) or when a committed lifting hands activity to another unit
// (SwitchActive). It never rescans positions.
type CellOccupancy struct {
	grid      PeriodicGrid
	cellLevel int
	resident  map[*Cell]int
	surplus   map[*Cell][]int
	active    map[int]*Cell
}

// NewCellOccupancy creates an empty occupancy over the given periodic grid.
// The cell level names the depth of the global-state hierarchy this occupancy
// tracks (1 for leaf units).
func NewCellOccupancy(grid PeriodicGrid, cellLevel int) (*CellOccupancy, error) {
	if grid == nil {
		return nil, fmt.Errorf("occupancy: a periodic cell system is required")
	}
	if cellLevel < 1 {
		return nil, fmt.Errorf("occupancy: cell level must be at least 1, got %d", cellLevel)
	}
	return &CellOccupancy{
		grid:      grid,
		cellLevel: cellLevel,
		resident:  make(map[*Cell]int),
		surplus:   make(map[*Cell][]int),
		active:    make(map[int]*Cell),
	}, nil
}

// CellLevel returns the global-state level this occupancy tracks.
func (o *CellOccupancy) CellLevel() int {
	return o.cellLevel
}

// Initialize places every unit. positions[id] is the position of unit id;
// the ids listed in active start out as active units. Called once at the
// beginning of a run.
func (o *CellOccupancy) Initialize(positions [][]float64, active []int) {
	o.resident = make(map[*Cell]int, len(positions))
	o.surplus = make(map[*Cell][]int)
	o.active = make(map[int]*Cell, len(active))

	activeSet := make(map[int]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}
	for id, position := range positions {
		owner := o.grid.PositionToCell(position)
		if activeSet[id] {
			o.active[id] = owner
			continue
		}
		o.place(id, owner)
	}
}

func (o *CellOccupancy) place(id int, owner *Cell) {
	if _, occupied := o.resident[owner]; occupied {
		o.surplus[owner] = append(o.surplus[owner], id)
	} else {
		o.resident[owner] = id
	}
}

// YieldActiveCells returns (cell, identifier) pairs for every active unit,
// ordered by identifier for determinism.
func (o *CellOccupancy) YieldActiveCells() []ActiveCell {
	out := make([]ActiveCell, 0, len(o.active))
	for id, owner := range o.active {
		out = append(out, ActiveCell{Cell: owner, Unit: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out
}

// YieldSurplus returns the identifiers excluded from the one-per-cell
// placement, ordered for determinism. These units must be checked by exact
// pairwise event handlers instead of the cell-veto mechanism.
func (o *CellOccupancy) YieldSurplus() []int {
	var out []int
	for _, ids := range o.surplus {
		out = append(out, ids...)
	}
	sort.Ints(out)
	return out
}

// Resident returns the resident unit of the given cell, if any.
func (o *CellOccupancy) Resident(owner *Cell) (int, bool) {
	id, ok := o.resident[owner]
	return id, ok
}

// SurplusIn returns the surplus units of the given cell.
// The returned slice MUST NOT be modified.
func (o *CellOccupancy) SurplusIn(owner *Cell) []int {
	return o.surplus[owner]
}

// ActiveCellOf returns the cell of the given active unit.
func (o *CellOccupancy) ActiveCellOf(unit int) (*Cell, bool) {
	owner, ok := o.active[unit]
	return owner, ok
}

// RecordCrossing moves an active unit into its new cell after a committed
// boundary-crossing event. Panics when the unit is not active: the
// surrounding scheduler owes crossings only for active units.
func (o *CellOccupancy) RecordCrossing(unit int, target *Cell) {
	if _, ok := o.active[unit]; !ok {
		panic(fmt.Sprintf("RecordCrossing: unit %d is not active", unit))
	}
	o.active[unit] = target
}

// SwitchActive hands the active status from oldUnit to newUnit after a
// committed lifting. newCell is the cell the new active unit occupies; the
// old unit becomes a passive occupant of its last recorded cell.
func (o *CellOccupancy) SwitchActive(oldUnit, newUnit int, newCell *Cell) {
	oldCell, ok := o.active[oldUnit]
	if !ok {
		panic(fmt.Sprintf("SwitchActive: unit %d is not active", oldUnit))
	}
	o.removePassive(newUnit, newCell)
	delete(o.active, oldUnit)
	o.active[newUnit] = newCell
	o.place(oldUnit, oldCell)
}

func (o *CellOccupancy) removePassive(unit int, owner *Cell) {
	if id, ok := o.resident[owner]; ok && id == unit {
		delete(o.resident, owner)
		// Promote a surplus unit into the freed resident slot.
		if ids := o.surplus[owner]; len(ids) > 0 {
			o.resident[owner] = ids[0]
			if len(ids) == 1 {
				delete(o.surplus, owner)
			} else {
				o.surplus[owner] = ids[1:]
			}
		}
		return
	}
	for i, id := range o.surplus[owner] {
		if id == unit {
			o.surplus[owner] = append(o.surplus[owner][:i:i], o.surplus[owner][i+1:]...)
			if len(o.surplus[owner]) == 0 {
				delete(o.surplus, owner)
			}
			return
		}
	}
	panic(fmt.Sprintf("SwitchActive: unit %d is not an occupant of cell %v", unit, owner))
}

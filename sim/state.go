package sim

import (
	"fmt"

	"github.com/ecmc-sim/ecmc-sim/sim/cell"
)

// Unit is a leaf unit of the global state: one point mass with a position,
// an optional velocity (nil while passive), the time stamp of its last
// time slice, and a charge. Event handlers receive copies of units as their
// in-state and return modified copies as their out-state; the state handler
// applies all writes when it commits an out-state.
type Unit struct {
	Identifier int
	Position   []float64
	Velocity   []float64
	TimeStamp  Time
	Charge     float64
}

// IsActive reports whether the unit currently carries a velocity.
func (u *Unit) IsActive() bool {
	return u.Velocity != nil
}

// Copy returns a deep copy of the unit.
func (u *Unit) Copy() *Unit {
	copied := &Unit{
		Identifier: u.Identifier,
		Position:   append([]float64(nil), u.Position...),
		TimeStamp:  u.TimeStamp,
		Charge:     u.Charge,
	}
	if u.Velocity != nil {
		copied.Velocity = append([]float64(nil), u.Velocity...)
	}
	return copied
}

// AdvanceTo time-slices the unit: it moves the unit along its velocity until
// the given time, wraps the position back into the box, and updates the time
// stamp. Passive units only update their time stamp.
func (u *Unit) AdvanceTo(t Time, geometry *cell.Geometry) {
	if u.Velocity != nil {
		duration := t.Sub(u.TimeStamp)
		for d := range u.Position {
			u.Position[d] += u.Velocity[d] * duration
		}
		geometry.CorrectPosition(u.Position)
	}
	u.TimeStamp = t
}

// StateHandler owns the authoritative global state. Handlers never touch it
// directly: they work on branches extracted as copies and the simulator
// commits their out-states back.
type StateHandler struct {
	geometry   *cell.Geometry
	units      []*Unit
	activeUnit int
}

// NewStateHandler creates the global state from initial positions and
// charges. All units start passive; activate one with SetActive before
// running.
func NewStateHandler(geometry *cell.Geometry, positions [][]float64, charges []float64) (*StateHandler, error) {
	if geometry == nil {
		return nil, fmt.Errorf("state: geometry must not be nil")
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("state: at least one unit is required")
	}
	if len(charges) != len(positions) {
		return nil, fmt.Errorf("state: got %d charges for %d units", len(charges), len(positions))
	}
	s := &StateHandler{geometry: geometry, units: make([]*Unit, len(positions)), activeUnit: -1}
	for id, position := range positions {
		if !geometry.Contains(position) {
			return nil, fmt.Errorf("state: initial position %v of unit %d lies outside the box", position, id)
		}
		s.units[id] = &Unit{
			Identifier: id,
			Position:   append([]float64(nil), position...),
			Charge:     charges[id],
		}
	}
	return s, nil
}

// NumUnits returns the number of units of the global state.
func (s *StateHandler) NumUnits() int {
	return len(s.units)
}

// ActiveUnit returns the identifier of the currently active unit, or -1.
func (s *StateHandler) ActiveUnit() int {
	return s.activeUnit
}

// SetActive gives the unit the velocity and time stamp of the start of a new
// chain. Panics when another unit is still active; activity moves between
// units only through committed out-states.
func (s *StateHandler) SetActive(id int, velocity []float64, t Time) {
	if s.activeUnit >= 0 && s.activeUnit != id {
		panic(fmt.Sprintf("SetActive: unit %d is still active", s.activeUnit))
	}
	s.units[id].Velocity = append([]float64(nil), velocity...)
	s.units[id].TimeStamp = t
	s.activeUnit = id
}

// ExtractBranch returns a deep copy of the unit with the given identifier.
func (s *StateHandler) ExtractBranch(id int) *Unit {
	return s.units[id].Copy()
}

// Positions returns a copy of all unit positions, indexed by identifier.
func (s *StateHandler) Positions() [][]float64 {
	out := make([][]float64, len(s.units))
	for id, unit := range s.units {
		out[id] = append([]float64(nil), unit.Position...)
	}
	return out
}

// Commit applies an out-state: the handler takes ownership of the passed
// copies and replaces the stored units. Activity follows the committed
// velocities.
func (s *StateHandler) Commit(units ...*Unit) {
	for _, unit := range units {
		if unit.Identifier < 0 || unit.Identifier >= len(s.units) {
			panic(fmt.Sprintf("Commit: unknown unit identifier %d", unit.Identifier))
		}
		wasActive := s.units[unit.Identifier].IsActive()
		s.units[unit.Identifier] = unit
		if unit.IsActive() {
			s.activeUnit = unit.Identifier
		} else if wasActive && s.activeUnit == unit.Identifier {
			s.activeUnit = -1
		}
	}
	// A lifting commits the deactivated old unit and the activated new unit
	// in one out-state; re-derive the active unit when the order of the
	// slice put the activation first.
	for _, unit := range units {
		if unit.IsActive() {
			s.activeUnit = unit.Identifier
		}
	}
}

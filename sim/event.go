package sim

import (
	"github.com/sirupsen/logrus"
)

// Event is one candidate event of the current step. Each event carries the
// candidate time of its handler and an Execute method that resolves the
// candidate against the simulator state when it wins the race.
type Event interface {
	Time() Time
	Execute(*Simulator)
}

// EventQueue implements heap.Interface and orders candidate events by time.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []Event

func (eq EventQueue) Len() int           { return len(eq) }
func (eq EventQueue) Less(i, j int) bool { return eq[i].Time().Before(eq[j].Time()) }
func (eq EventQueue) Swap(i, j int)      { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// cellBoundaryEvent commits a cell boundary crossing of the active unit.
type cellBoundaryEvent struct {
	time    Time
	handler *CellBoundaryEventHandler
}

func (e *cellBoundaryEvent) Time() Time {
	return e.time
}

func (e *cellBoundaryEvent) Execute(sim *Simulator) {
	outState := e.handler.SendOutState()
	unit := outState[0]
	logrus.Debugf("[t %.6f] Boundary crossing of unit %d into cell %v",
		e.time.Float(), unit.Identifier, e.handler.TargetCell())
	sim.state.Commit(outState...)
	sim.occupancy.RecordCrossing(unit.Identifier, e.handler.TargetCell())
	sim.Metrics.BoundaryCrossings++
}

// cellVetoEvent resolves a cell-veto candidate: it fetches the resident of
// the sampled target cell and lets the handler thin and possibly lift.
type cellVetoEvent struct {
	time    Time
	handler *CellVetoEventHandler
}

func (e *cellVetoEvent) Time() Time {
	return e.time
}

func (e *cellVetoEvent) Execute(sim *Simulator) {
	oldActive := sim.state.ActiveUnit()
	var target *Unit
	// Only the resident occupant realizes the sampled separation. Surplus
	// occupants of the cell stay with the exact treatment of close-by pairs.
	if resident, ok := sim.occupancy.Resident(e.handler.TargetCell()); ok {
		target = sim.state.ExtractBranch(resident)
	}
	outState := e.handler.SendOutState(target)
	sim.state.Commit(outState...)
	sim.Metrics.RecordVetoOutcome(e.handler.Outcome())
	logrus.Debugf("[t %.6f] Veto candidate of slot %d resolved as %s",
		e.time.Float(), e.handler.Slot(), e.handler.Outcome())
	if e.handler.Lifted() {
		sim.occupancy.SwitchActive(oldActive, e.handler.NextActive(), e.handler.TargetCell())
	}
}

// chainEndEvent halts the current chain and starts the next one with a
// freshly drawn active unit and axis of motion.
type chainEndEvent struct {
	time    Time
	handler *EndOfChainEventHandler
}

func (e *chainEndEvent) Time() Time {
	return e.time
}

func (e *chainEndEvent) Execute(sim *Simulator) {
	oldActive := sim.state.ActiveUnit()
	successorID, axis := e.handler.SampleSuccessor(sim.state.NumUnits())
	var successor *Unit
	if successorID != oldActive {
		successor = sim.state.ExtractBranch(successorID)
	}
	outState := e.handler.SendOutState(successor, axis)
	sim.state.Commit(outState...)
	sim.Metrics.ChainEnds++
	logrus.Debugf("[t %.6f] Chain end: unit %d moves along axis %d",
		e.time.Float(), successorID, axis)
	if successorID != oldActive {
		newCell := sim.grid.PositionToCell(activeUnitOf(outState).Position)
		sim.occupancy.SwitchActive(oldActive, successorID, newCell)
	}
}

// activeUnitOf returns the single active unit of an out-state.
func activeUnitOf(outState []*Unit) *Unit {
	for _, unit := range outState {
		if unit.IsActive() {
			return unit
		}
	}
	panic("activeUnitOf: out-state contains no active unit")
}

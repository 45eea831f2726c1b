package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ecmc-sim/ecmc-sim/sim/cell"
	"github.com/ecmc-sim/ecmc-sim/sim/trace"
)

// Simulator owns the event loop of one event-chain run. Each step it asks
// every event handler for the candidate time of its next event given the
// branch of the active unit, lets the earliest candidate win, and commits
// that handler's out-state back into the global state and the occupancy.
// Candidates of the losing handlers are discarded; the next step requests
// fresh ones from the committed state.
type Simulator struct {
	Clock   Time
	Horizon Time
	// EventQueue holds the candidate events of the current step.
	EventQueue EventQueue

	Metrics *Metrics
	Trace   *trace.SimulationTrace

	geometry  *cell.Geometry
	grid      cell.PeriodicGrid
	state     *StateHandler
	occupancy *cell.CellOccupancy

	boundary  *CellBoundaryEventHandler
	vetoSlots []*CellVetoEventHandler
	chain     *EndOfChainEventHandler
}

// NewSimulator wires the handlers to the global state. The veto slot pool
// must hold at least one handler per concurrently active unit.
func NewSimulator(grid cell.PeriodicGrid, state *StateHandler, occupancy *cell.CellOccupancy,
	boundary *CellBoundaryEventHandler, vetoSlots []*CellVetoEventHandler,
	chain *EndOfChainEventHandler, horizon float64, simTrace *trace.SimulationTrace) (*Simulator, error) {
	if grid == nil || state == nil || occupancy == nil {
		return nil, fmt.Errorf("simulator: grid, state and occupancy must not be nil")
	}
	if boundary == nil || chain == nil {
		return nil, fmt.Errorf("simulator: boundary and chain handlers must not be nil")
	}
	if len(vetoSlots) == 0 {
		return nil, fmt.Errorf("simulator: at least one veto handler slot is required")
	}
	if !(horizon > 0.0) {
		return nil, fmt.Errorf("simulator: horizon must be positive, got %v", horizon)
	}
	return &Simulator{
		Horizon:    TimeFromFloat(horizon),
		EventQueue: make(EventQueue, 0),
		Metrics:    &Metrics{},
		Trace:      simTrace,
		geometry:   grid.Geometry(),
		grid:       grid,
		state:      state,
		occupancy:  occupancy,
		boundary:   boundary,
		vetoSlots:  vetoSlots,
		chain:      chain,
	}, nil
}

// Schedule pushes a candidate event of the current step.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.EventQueue, ev)
}

// Step runs one iteration of the event loop: collect candidates, commit the
// earliest. Returns false once the horizon is reached.
func (sim *Simulator) Step() bool {
	active := sim.state.ActiveUnit()
	if active < 0 {
		panic("Step: no unit is active")
	}
	activeCells := sim.occupancy.YieldActiveCells()
	if len(activeCells) > len(sim.vetoSlots) {
		panic(fmt.Sprintf("Step: %d active units exceed the %d veto handler slots",
			len(activeCells), len(sim.vetoSlots)))
	}

	sim.EventQueue = sim.EventQueue[:0]

	boundaryTime := sim.boundary.SendEventTime([]*Unit{sim.state.ExtractBranch(active)})
	sim.Schedule(&cellBoundaryEvent{time: boundaryTime, handler: sim.boundary})

	for slot, activeCell := range activeCells {
		handler := sim.vetoSlots[slot]
		handler.Reset()
		vetoTime, _ := handler.SendEventTime([]*Unit{sim.state.ExtractBranch(activeCell.Unit)})
		if !vetoTime.IsInfinite() {
			sim.Schedule(&cellVetoEvent{time: vetoTime, handler: handler})
		}
	}

	chainTime := sim.chain.SendEventTime([]*Unit{sim.state.ExtractBranch(active)})
	sim.Schedule(&chainEndEvent{time: chainTime, handler: sim.chain})

	ev := heap.Pop(&sim.EventQueue).(Event)
	if !ev.Time().Before(sim.Horizon) {
		sim.Clock = sim.Horizon
		return false
	}
	sim.Clock = ev.Time()
	logrus.Debugf("[t %.6f] Executing %T", sim.Clock.Float(), ev)
	ev.Execute(sim)
	return true
}

// Run drives the event loop until the horizon, then finalizes the metrics.
func (sim *Simulator) Run() {
	logrus.Infof("Starting run over %d units up to time %v", sim.state.NumUnits(), sim.Horizon.Float())
	for sim.Step() {
	}
	sim.Metrics.FinalTime = sim.Clock.Float()
	sim.Metrics.Log()
}

// State returns the global state handler.
func (sim *Simulator) State() *StateHandler {
	return sim.state
}

// Occupancy returns the cell occupancy.
func (sim *Simulator) Occupancy() *cell.CellOccupancy {
	return sim.occupancy
}

package sim

import (
	"fmt"

	"github.com/ecmc-sim/ecmc-sim/sim/cell"
)

// EndOfChainEventHandler cuts the run into chains of fixed length in
// simulation time. At each chain end the current active unit is halted and a
// uniformly drawn successor starts moving along a uniformly drawn axis.
// Resampling the active unit and the direction of motion is what makes the
// chain dynamics irreducible over the whole state space.
type EndOfChainEventHandler struct {
	geometry    *cell.Geometry
	chainLength float64
	speed       float64
	dimension   int
	rng         *PartitionedRNG

	nextChainEnd Time
	unit         *Unit
}

// NewEndOfChainEventHandler creates the handler. The first chain ends at
// chainLength; every committed chain end schedules the next one.
func NewEndOfChainEventHandler(geometry *cell.Geometry, chainLength, speed float64, rng *PartitionedRNG) (*EndOfChainEventHandler, error) {
	if geometry == nil {
		return nil, fmt.Errorf("chain handler: geometry must not be nil")
	}
	if !(chainLength > 0.0) {
		return nil, fmt.Errorf("chain handler: chain length must be positive, got %v", chainLength)
	}
	if !(speed > 0.0) {
		return nil, fmt.Errorf("chain handler: speed must be positive, got %v", speed)
	}
	if rng == nil {
		return nil, fmt.Errorf("chain handler: rng must not be nil")
	}
	return &EndOfChainEventHandler{
		geometry:     geometry,
		chainLength:  chainLength,
		speed:        speed,
		dimension:    geometry.Dimension(),
		rng:          rng,
		nextChainEnd: TimeFromFloat(chainLength),
	}, nil
}

// SendEventTime returns the time of the next chain end. The in-state must be
// the branch of the single active unit.
func (h *EndOfChainEventHandler) SendEventTime(inState []*Unit) Time {
	if len(inState) != 1 {
		panic(fmt.Sprintf("SendEventTime: chain handler expects exactly one branch, got %d", len(inState)))
	}
	h.unit = inState[0]
	return h.nextChainEnd
}

// SampleSuccessor draws the identifier of the next active unit and its axis
// of motion. Called once per committed chain end, before SendOutState.
func (h *EndOfChainEventHandler) SampleSuccessor(numUnits int) (int, int) {
	chainRNG := h.rng.ForSubsystem(SubsystemChain)
	return chainRNG.Intn(numUnits), chainRNG.Intn(h.dimension)
}

// SendOutState halts the current active unit and starts the successor along
// the given axis. When the successor is the halted unit itself, the single
// redirected unit is returned.
func (h *EndOfChainEventHandler) SendOutState(successor *Unit, axis int) []*Unit {
	if h.unit == nil {
		panic("SendOutState: no candidate event time was requested")
	}
	if axis < 0 || axis >= h.dimension {
		panic(fmt.Sprintf("SendOutState: axis %d out of range for dimension %d", axis, h.dimension))
	}
	unit := h.unit
	h.unit = nil
	eventTime := h.nextChainEnd
	h.nextChainEnd = h.nextChainEnd.Add(h.chainLength)

	unit.AdvanceTo(eventTime, h.geometry)
	velocity := make([]float64, h.dimension)
	velocity[axis] = h.speed

	if successor == nil || successor.Identifier == unit.Identifier {
		unit.Velocity = velocity
		return []*Unit{unit}
	}
	unit.Velocity = nil
	successor.AdvanceTo(eventTime, h.geometry)
	successor.Velocity = velocity
	return []*Unit{unit, successor}
}

// NextChainEnd returns the time of the next scheduled chain end.
func (h *EndOfChainEventHandler) NextChainEnd() Time {
	return h.nextChainEnd
}

package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecmc-sim/ecmc-sim/sim/cell"
)

func newChainFixture(t *testing.T) (*cell.Geometry, *EndOfChainEventHandler) {
	t.Helper()
	geometry, err := cell.NewGeometry([]float64{1.0, 1.0})
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	handler, err := NewEndOfChainEventHandler(geometry, 0.5, 2.0, NewPartitionedRNG(NewSimulationKey(42)))
	if err != nil {
		t.Fatalf("NewEndOfChainEventHandler: %v", err)
	}
	return geometry, handler
}

func TestNewEndOfChainEventHandler_Errors(t *testing.T) {
	geometry, _ := newChainFixture(t)
	rng := NewPartitionedRNG(NewSimulationKey(1))
	_, err := NewEndOfChainEventHandler(nil, 0.5, 1.0, rng)
	assert.Error(t, err)
	_, err = NewEndOfChainEventHandler(geometry, 0.0, 1.0, rng)
	assert.Error(t, err)
	_, err = NewEndOfChainEventHandler(geometry, 0.5, 0.0, rng)
	assert.Error(t, err)
	_, err = NewEndOfChainEventHandler(geometry, 0.5, 1.0, nil)
	assert.Error(t, err)
}

func TestEndOfChainEventHandler_ChainEndsAreEquallySpaced(t *testing.T) {
	// GIVEN a chain length of 0.5
	_, handler := newChainFixture(t)
	unit := &Unit{Identifier: 0, Position: []float64{0.5, 0.5}, Velocity: []float64{2.0, 0.0}}

	// THEN the first chain ends at 0.5 and every committed chain end
	// schedules the next one
	first := handler.SendEventTime([]*Unit{unit})
	assert.Equal(t, 0, first.Compare(TimeFromFloat(0.5)))
	handler.SendOutState(nil, 0)
	assert.Equal(t, 0, handler.NextChainEnd().Compare(TimeFromFloat(1.0)))
}

func TestEndOfChainEventHandler_HandsVelocityToSuccessor(t *testing.T) {
	// GIVEN an active unit and a passive successor
	_, handler := newChainFixture(t)
	active := &Unit{Identifier: 0, Position: []float64{0.1, 0.5}, Velocity: []float64{2.0, 0.0}}
	successor := &Unit{Identifier: 1, Position: []float64{0.7, 0.7}}

	// WHEN the chain end is committed with axis 1
	handler.SendEventTime([]*Unit{active})
	outState := handler.SendOutState(successor, 1)

	// THEN the old unit halts at the chain end and the successor starts
	// along the drawn axis
	assert.Len(t, outState, 2)
	assert.False(t, outState[0].IsActive())
	assert.Equal(t, 0, outState[0].TimeStamp.Compare(TimeFromFloat(0.5)))
	assert.Equal(t, []float64{0.0, 2.0}, outState[1].Velocity)
	assert.Equal(t, 0, outState[1].TimeStamp.Compare(TimeFromFloat(0.5)))
	// The old unit advanced to the chain end before halting: 0.1 + 2*0.5
	// wraps onto 0.1.
	assert.InDelta(t, 0.1, outState[0].Position[0], 1.0e-12)
}

func TestEndOfChainEventHandler_SameUnitRedirects(t *testing.T) {
	// GIVEN the active unit drawn as its own successor
	_, handler := newChainFixture(t)
	active := &Unit{Identifier: 0, Position: []float64{0.1, 0.5}, Velocity: []float64{2.0, 0.0}}

	// WHEN the chain end is committed
	handler.SendEventTime([]*Unit{active})
	outState := handler.SendOutState(nil, 1)

	// THEN the single unit is redirected instead of halted
	assert.Len(t, outState, 1)
	assert.Equal(t, []float64{0.0, 2.0}, outState[0].Velocity)
}

func TestEndOfChainEventHandler_SampleSuccessorStaysInRange(t *testing.T) {
	_, handler := newChainFixture(t)
	for i := 0; i < 100; i++ {
		id, axis := handler.SampleSuccessor(4)
		assert.GreaterOrEqual(t, id, 0)
		assert.Less(t, id, 4)
		assert.GreaterOrEqual(t, axis, 0)
		assert.Less(t, axis, 2)
	}
}

func TestEndOfChainEventHandler_Panics(t *testing.T) {
	_, handler := newChainFixture(t)
	assert.Panics(t, func() { handler.SendOutState(nil, 0) })

	active := &Unit{Identifier: 0, Position: []float64{0.1, 0.5}, Velocity: []float64{2.0, 0.0}}
	handler.SendEventTime([]*Unit{active})
	assert.Panics(t, func() { handler.SendOutState(nil, 2) })
}

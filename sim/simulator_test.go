package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecmc-sim/ecmc-sim/sim/potential"
	"github.com/ecmc-sim/ecmc-sim/sim/setup"
	"github.com/ecmc-sim/ecmc-sim/sim/trace"
)

func newRunSpec(seed int64) *setup.Spec {
	return &setup.Spec{
		Seed:           seed,
		Box:            []float64{1.0, 1.0},
		CellsPerSide:   []int{5},
		NeighborLayers: 1,
		Beta:           1.0,
		Horizon:        5.0,
		VetoSlots:      1,
		TraceLevel:     "decisions",
		Particles:      setup.ParticleSpec{Count: 4, Placement: "lattice"},
		Potential:      potential.Config{Type: "inverse-power", Power: 1.0, Prefactor: 1.0},
		Chain:          setup.ChainSpec{Length: 0.3, Speed: 1.0},
	}
}

func TestNewSimulatorFromSpec(t *testing.T) {
	// GIVEN a valid run spec
	s, err := NewSimulatorFromSpec(newRunSpec(42))
	if err != nil {
		t.Fatalf("NewSimulatorFromSpec: %v", err)
	}

	// THEN the assembled simulator starts with exactly one active unit
	assert.Equal(t, 4, s.State().NumUnits())
	assert.GreaterOrEqual(t, s.State().ActiveUnit(), 0)
	assert.Len(t, s.Occupancy().YieldActiveCells(), 1)

	// AND an invalid spec is rejected
	bad := newRunSpec(42)
	bad.Particles.Count = 1
	_, err = NewSimulatorFromSpec(bad)
	assert.Error(t, err)
}

func TestSimulator_RunReachesTheHorizon(t *testing.T) {
	// GIVEN an assembled simulator
	s, err := NewSimulatorFromSpec(newRunSpec(42))
	if err != nil {
		t.Fatalf("NewSimulatorFromSpec: %v", err)
	}

	// WHEN the run completes
	s.Run()

	// THEN the clock stopped at the horizon and events were committed
	assert.Equal(t, 5.0, s.Metrics.FinalTime)
	assert.Greater(t, s.Metrics.ChainEnds, 0)
	assert.Greater(t, s.Metrics.BoundaryCrossings+s.Metrics.VetoCandidates, 0)
}

func TestSimulator_RunIsDeterministic(t *testing.T) {
	// GIVEN two simulators built from the same spec and seed
	s1, err := NewSimulatorFromSpec(newRunSpec(123))
	if err != nil {
		t.Fatalf("NewSimulatorFromSpec: %v", err)
	}
	s2, err := NewSimulatorFromSpec(newRunSpec(123))
	if err != nil {
		t.Fatalf("NewSimulatorFromSpec: %v", err)
	}

	// WHEN both run to the horizon
	s1.Run()
	s2.Run()

	// THEN the event streams are identical, down to positions and counters
	assert.Equal(t, *s1.Metrics, *s2.Metrics)
	assert.Equal(t, s1.State().ActiveUnit(), s2.State().ActiveUnit())
	assert.Equal(t, s1.State().Positions(), s2.State().Positions())
	assert.Equal(t, s1.Trace.Summarize(), s2.Trace.Summarize())
}

func TestSimulator_DifferentSeedsDiverge(t *testing.T) {
	s1, err := NewSimulatorFromSpec(newRunSpec(1))
	if err != nil {
		t.Fatalf("NewSimulatorFromSpec: %v", err)
	}
	s2, err := NewSimulatorFromSpec(newRunSpec(2))
	if err != nil {
		t.Fatalf("NewSimulatorFromSpec: %v", err)
	}
	s1.Run()
	s2.Run()
	assert.NotEqual(t, s1.State().Positions(), s2.State().Positions())
}

func TestSimulator_OccupancyMatchesPositionsAfterRun(t *testing.T) {
	// GIVEN a completed run
	s, err := NewSimulatorFromSpec(newRunSpec(99))
	if err != nil {
		t.Fatalf("NewSimulatorFromSpec: %v", err)
	}
	s.Run()

	// THEN the event-driven occupancy agrees with the committed positions
	// for every unit
	active := s.State().ActiveUnit()
	assert.GreaterOrEqual(t, active, 0)
	for id, position := range s.State().Positions() {
		owner := s.grid.PositionToCell(position)
		if id == active {
			recorded, ok := s.Occupancy().ActiveCellOf(id)
			assert.True(t, ok)
			assert.Same(t, owner, recorded, "active unit %d", id)
			continue
		}
		resident, ok := s.Occupancy().Resident(owner)
		if ok && resident == id {
			continue
		}
		assert.Contains(t, s.Occupancy().SurplusIn(owner), id, "passive unit %d in cell %v", id, owner)
	}
}

func TestSimulator_TraceRecordsEveryVetoDecision(t *testing.T) {
	s, err := NewSimulatorFromSpec(newRunSpec(7))
	if err != nil {
		t.Fatalf("NewSimulatorFromSpec: %v", err)
	}
	s.Run()

	assert.Equal(t, s.Metrics.VetoCandidates, len(s.Trace.Vetoes))
	summary := s.Trace.Summarize()
	assert.Equal(t, s.Metrics.VetoCommitted, summary.Committed)
	assert.Equal(t, s.Metrics.VetoEmptyCell, summary.EmptyCell)
	assert.Equal(t, trace.TraceLevelDecisions, s.Trace.Config.Level)
}

func TestNewSimulator_Errors(t *testing.T) {
	s, err := NewSimulatorFromSpec(newRunSpec(42))
	if err != nil {
		t.Fatalf("NewSimulatorFromSpec: %v", err)
	}
	_, err = NewSimulator(nil, s.state, s.occupancy, s.boundary, s.vetoSlots, s.chain, 1.0, s.Trace)
	assert.Error(t, err)
	_, err = NewSimulator(s.grid, s.state, s.occupancy, nil, s.vetoSlots, s.chain, 1.0, s.Trace)
	assert.Error(t, err)
	_, err = NewSimulator(s.grid, s.state, s.occupancy, s.boundary, nil, s.chain, 1.0, s.Trace)
	assert.Error(t, err)
	_, err = NewSimulator(s.grid, s.state, s.occupancy, s.boundary, s.vetoSlots, s.chain, 0.0, s.Trace)
	assert.Error(t, err)
}

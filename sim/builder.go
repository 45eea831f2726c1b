package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ecmc-sim/ecmc-sim/sim/bounds"
	"github.com/ecmc-sim/ecmc-sim/sim/cell"
	"github.com/ecmc-sim/ecmc-sim/sim/potential"
	"github.com/ecmc-sim/ecmc-sim/sim/setup"
	"github.com/ecmc-sim/ecmc-sim/sim/trace"
)

// NewSimulatorFromSpec assembles a ready-to-run simulator from a validated
// run spec: geometry, periodic cell system, occupancy, potential, bound table
// with its alias samplers, the handler set, and the initial configuration
// with one active unit.
func NewSimulatorFromSpec(spec *setup.Spec) (*Simulator, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("run spec: %w", err)
	}

	geometry, err := cell.NewGeometry(spec.Box)
	if err != nil {
		return nil, err
	}
	grid, err := cell.NewCuboidPeriodicCells(geometry, spec.CellsPerSide, spec.NeighborLayers)
	if err != nil {
		return nil, err
	}
	occupancy, err := cell.NewCellOccupancy(grid, 1)
	if err != nil {
		return nil, err
	}

	pot, err := potential.New(spec.Potential)
	if err != nil {
		return nil, err
	}
	estimator, err := bounds.NewInnerPointEstimator(geometry, pot, spec.Estimator)
	if err != nil {
		return nil, err
	}
	// Lower bounds are needed exactly when a signed charge can flip the sign
	// of the charge correction factor.
	calculateLowerBound := spec.Potential.Charged && spec.HasNegativeCharge()
	table, err := bounds.NewCellBoundTable(grid, estimator, calculateLowerBound)
	if err != nil {
		return nil, err
	}
	rates, err := NewVetoRates(table, geometry.Dimension())
	if err != nil {
		return nil, err
	}

	rng := NewPartitionedRNG(NewSimulationKey(spec.Seed))
	simTrace := trace.NewSimulationTrace(trace.TraceConfig{Level: traceLevelOf(spec)})

	positions := spec.Positions(rng.ForSubsystem(SubsystemSetup))
	state, err := NewStateHandler(geometry, positions, spec.Charges())
	if err != nil {
		return nil, err
	}
	chainRNG := rng.ForSubsystem(SubsystemChain)
	firstActive := chainRNG.Intn(state.NumUnits())
	firstAxis := chainRNG.Intn(geometry.Dimension())
	velocity := make([]float64, geometry.Dimension())
	velocity[firstAxis] = spec.Chain.Speed
	state.SetActive(firstActive, velocity, Time{})
	occupancy.Initialize(state.Positions(), []int{firstActive})

	boundary, err := NewCellBoundaryEventHandler(grid, occupancy.CellLevel())
	if err != nil {
		return nil, err
	}
	vetoSlots := make([]*CellVetoEventHandler, spec.VetoSlots)
	for slot := range vetoSlots {
		lifting, err := NewLifting("ratio")
		if err != nil {
			return nil, err
		}
		vetoSlots[slot], err = NewCellVetoEventHandler(grid, rates, pot, estimator, lifting,
			spec.Beta, slot, simTrace, rng)
		if err != nil {
			return nil, err
		}
	}
	chain, err := NewEndOfChainEventHandler(geometry, spec.Chain.Length, spec.Chain.Speed, rng)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Assembled simulator: %d units, %d cells, %d veto slots, unit %d starts along axis %d",
		state.NumUnits(), len(grid.Cells()), spec.VetoSlots, firstActive, firstAxis)
	return NewSimulator(grid, state, occupancy, boundary, vetoSlots, chain, spec.Horizon, simTrace)
}

func traceLevelOf(spec *setup.Spec) trace.TraceLevel {
	if spec.TraceLevel == "" {
		return trace.TraceLevelNone
	}
	return trace.TraceLevel(spec.TraceLevel)
}

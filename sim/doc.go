// Package sim provides the event-chain Monte Carlo engine built around the
// cell-veto algorithm.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - state.go: Unit branches, the global state, and how out-states commit
//   - event.go: Candidate events (boundary crossing, cell veto, chain end)
//   - simulator.go: The per-step candidate race and the event loop
//
// # Architecture
//
// The sim package holds the event loop, the global state, and the event
// handlers; implementations of the cell-veto building blocks live in
// sub-packages:
//   - sim/cell/: Periodic cuboid cell systems and the cell occupancy
//   - sim/walker/: Alias-method sampler for target cell separations
//   - sim/bounds/: Derivative-bound estimator and the per-separation table
//   - sim/potential/: Pair potentials
//   - sim/setup/: YAML run specification
//   - sim/trace/: Decision trace recording
//
// # Event handlers
//
// Each handler answers SendEventTime with the candidate time of its next
// event given a copy of the active unit, and SendOutState with the modified
// unit copies once its candidate wins the race. The three handlers are the
// CellBoundaryEventHandler (keeps the occupancy exact), the
// CellVetoEventHandler (bounded far-field interactions, thinned against the
// exact derivative, lifting on acceptance), and the EndOfChainEventHandler
// (periodic resampling of the active unit and its axis).
package sim

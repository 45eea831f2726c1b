// Package cell implements the spatial cell decomposition of the periodic
// simulation box: the immutable Geometry of the box, cuboid cell grids with
// and without periodic wraparound, and the CellOccupancy bookkeeping that maps
// cells to the units they contain.
//
// # Reading Guide
//
//   - geometry.go: the box (lengths, wrapping, minimum-image separations)
//   - cuboid.go: CuboidCells, the non-periodic grid and position lookup
//   - periodic.go: CuboidPeriodicCells, zero cell and separation arithmetic
//   - occupancy.go: CellOccupancy, resident/surplus/active tracking
//
// Grids are built once at startup and are read-only afterwards; they may be
// shared freely between event handlers. CellOccupancy is the only mutable
// structure and is updated exclusively by committed boundary-crossing and
// lifting events.
package cell

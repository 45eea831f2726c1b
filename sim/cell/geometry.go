package cell

import (
	"fmt"
	"math"
)

// Geometry is the immutable description of the hyper-rectangular periodic
// simulation box. It replaces process-wide mutable settings: every component
// that needs the box receives the same Geometry instance explicitly.
type Geometry struct {
	lengths []float64
}

// NewGeometry creates a Geometry for a box with the given side length per
// axis. The dimension of the simulation is len(lengths).
func NewGeometry(lengths []float64) (*Geometry, error) {
	if len(lengths) == 0 {
		return nil, fmt.Errorf("geometry: at least one box side length is required")
	}
	stored := make([]float64, len(lengths))
	for d, length := range lengths {
		if !(length > 0.0) || math.IsInf(length, 0) || math.IsNaN(length) {
			return nil, fmt.Errorf("geometry: box side length on axis %d must be positive and finite, got %v", d, length)
		}
		stored[d] = length
	}
	return &Geometry{lengths: stored}, nil
}

// Dimension returns the number of axes of the simulation box.
func (g *Geometry) Dimension() int {
	return len(g.lengths)
}

// Length returns the box side length along the given axis.
func (g *Geometry) Length(axis int) float64 {
	return g.lengths[axis]
}

// Lengths returns a copy of the per-axis box side lengths.
func (g *Geometry) Lengths() []float64 {
	out := make([]float64, len(g.lengths))
	copy(out, g.lengths)
	return out
}

// CorrectPositionEntry wraps a single coordinate into [0, length) on the
// given axis.
func (g *Geometry) CorrectPositionEntry(value float64, axis int) float64 {
	length := g.lengths[axis]
	value -= length * math.Floor(value/length)
	// Floor arithmetic can land exactly on the upper edge for tiny negative
	// inputs; fold that edge back onto the origin.
	if value >= length {
		value -= length
	}
	return value
}

// CorrectPosition wraps every coordinate of the position into the box,
// in place.
func (g *Geometry) CorrectPosition(position []float64) {
	for d := range position {
		position[d] = g.CorrectPositionEntry(position[d], d)
	}
}

// CorrectSeparation maps every entry of the separation vector onto its
// minimum image in [-length/2, length/2), in place.
func (g *Geometry) CorrectSeparation(separation []float64) {
	for d := range separation {
		length := g.lengths[d]
		separation[d] -= length * math.Floor(separation[d]/length+0.5)
	}
}

// SeparationVector returns the minimum-image vector pointing from the first
// position to the second.
func (g *Geometry) SeparationVector(from, to []float64) []float64 {
	separation := make([]float64, len(g.lengths))
	for d := range separation {
		separation[d] = to[d] - from[d]
	}
	g.CorrectSeparation(separation)
	return separation
}

// NextImage shifts a negative separation entry on the given axis into the
// next periodic image.
func (g *Geometry) NextImage(separation float64, axis int) float64 {
	return separation + g.lengths[axis]
}

// Contains reports whether every coordinate of the position lies within
// [0, length] on its axis.
func (g *Geometry) Contains(position []float64) bool {
	if len(position) != len(g.lengths) {
		return false
	}
	for d, entry := range position {
		if entry < 0.0 || entry > g.lengths[d] {
			return false
		}
	}
	return true
}

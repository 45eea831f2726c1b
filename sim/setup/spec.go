// Package setup loads and validates the YAML run specification: the box, the
// cell systems, the particle configuration, the potential, the estimator, and
// the chain parameters of one run.
package setup

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ecmc-sim/ecmc-sim/sim/bounds"
	"github.com/ecmc-sim/ecmc-sim/sim/potential"
	"github.com/ecmc-sim/ecmc-sim/sim/trace"
)

// Spec is the top-level run configuration. Loaded from YAML via Load(path).
type Spec struct {
	Version        string                 `yaml:"version"`
	Seed           int64                  `yaml:"seed"`
	Box            []float64              `yaml:"box"`             // side lengths of the periodic box
	CellsPerSide   []int                  `yaml:"cells_per_side"`  // cells per axis; a single value repeats
	NeighborLayers int                    `yaml:"neighbor_layers"` // nearby-cell layers (default 1)
	Beta           float64                `yaml:"beta"`            // inverse temperature (default 1)
	Horizon        float64                `yaml:"horizon"`         // total run time (default 100)
	VetoSlots      int                    `yaml:"veto_slots"`      // veto handler pool size (default 1)
	TraceLevel     string                 `yaml:"trace_level"`     // "none" or "decisions"
	Particles      ParticleSpec           `yaml:"particles"`
	Potential      potential.Config       `yaml:"potential"`
	Estimator      bounds.EstimatorConfig `yaml:"estimator"`
	Chain          ChainSpec              `yaml:"chain"`
}

// ParticleSpec defines the initial particle configuration.
type ParticleSpec struct {
	Count     int       `yaml:"count"`
	Placement string    `yaml:"placement"` // "lattice" (default) or "random"
	Charges   []float64 `yaml:"charges"`   // per unit, or one value for all, or empty for 1
}

// ChainSpec parameterizes the event chains.
type ChainSpec struct {
	Length float64 `yaml:"length"` // simulation time per chain
	Speed  float64 `yaml:"speed"`  // speed of the active unit (default 1)
}

var validPlacements = map[string]bool{
	"": true, "lattice": true, "random": true,
}

// Load reads and parses a YAML run specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run spec: %w", err)
	}
	var spec Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing run spec: %w", err)
	}
	spec.applyDefaults()
	return &spec, nil
}

func (s *Spec) applyDefaults() {
	if s.Version == "" {
		s.Version = "1"
	}
	if s.NeighborLayers == 0 {
		s.NeighborLayers = 1
	}
	if s.Beta == 0 {
		s.Beta = 1.0
	}
	if s.Horizon == 0 {
		s.Horizon = 100.0
	}
	if s.VetoSlots == 0 {
		s.VetoSlots = 1
	}
	if s.Chain.Speed == 0 {
		s.Chain.Speed = 1.0
	}
	if s.Chain.Length == 0 {
		s.Chain.Length = 1.0
	}
}

// Validate checks that all fields in the spec are valid.
func (s *Spec) Validate() error {
	if len(s.Box) == 0 {
		return fmt.Errorf("box must list at least one side length")
	}
	for d, length := range s.Box {
		if math.IsNaN(length) || math.IsInf(length, 0) || length <= 0 {
			return fmt.Errorf("box[%d] must be a finite positive length, got %f", d, length)
		}
	}
	if len(s.CellsPerSide) == 0 {
		return fmt.Errorf("cells_per_side must list at least one value")
	}
	for d, cells := range s.CellsPerSide {
		if cells < 1 {
			return fmt.Errorf("cells_per_side[%d] must be at least 1, got %d", d, cells)
		}
	}
	if s.NeighborLayers < 0 {
		return fmt.Errorf("neighbor_layers must be non-negative, got %d", s.NeighborLayers)
	}
	if s.Beta <= 0 {
		return fmt.Errorf("beta must be positive, got %f", s.Beta)
	}
	if s.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %f", s.Horizon)
	}
	if s.VetoSlots < 1 {
		return fmt.Errorf("veto_slots must be at least 1, got %d", s.VetoSlots)
	}
	if !trace.IsValidTraceLevel(s.TraceLevel) {
		return fmt.Errorf("unknown trace_level %q; valid: none, decisions", s.TraceLevel)
	}
	if s.Particles.Count < 2 {
		return fmt.Errorf("particles.count must be at least 2, got %d", s.Particles.Count)
	}
	if !validPlacements[s.Particles.Placement] {
		return fmt.Errorf("unknown particles.placement %q; valid: lattice, random", s.Particles.Placement)
	}
	if n := len(s.Particles.Charges); n != 0 && n != 1 && n != s.Particles.Count {
		return fmt.Errorf("particles.charges must hold 0, 1 or %d values, got %d", s.Particles.Count, n)
	}
	for i, charge := range s.Particles.Charges {
		if math.IsNaN(charge) || math.IsInf(charge, 0) {
			return fmt.Errorf("particles.charges[%d] must be a finite number, got %f", i, charge)
		}
	}
	if s.Chain.Length <= 0 {
		return fmt.Errorf("chain.length must be positive, got %f", s.Chain.Length)
	}
	if s.Chain.Speed <= 0 {
		return fmt.Errorf("chain.speed must be positive, got %f", s.Chain.Speed)
	}
	return nil
}

// Dimension returns the dimension of the box.
func (s *Spec) Dimension() int {
	return len(s.Box)
}

// Positions builds the initial unit positions. Lattice placement fills a
// cubic sublattice with count sites; random placement draws every coordinate
// uniformly from the box using the given stream.
func (s *Spec) Positions(rng *rand.Rand) [][]float64 {
	dimension := s.Dimension()
	positions := make([][]float64, s.Particles.Count)
	if s.Particles.Placement == "random" {
		for i := range positions {
			position := make([]float64, dimension)
			for d := 0; d < dimension; d++ {
				position[d] = rng.Float64() * s.Box[d]
			}
			positions[i] = position
		}
		return positions
	}

	sitesPerSide := int(math.Ceil(math.Pow(float64(s.Particles.Count), 1.0/float64(dimension))))
	site := make([]int, dimension)
	for i := range positions {
		position := make([]float64, dimension)
		for d := 0; d < dimension; d++ {
			position[d] = (float64(site[d]) + 0.5) * s.Box[d] / float64(sitesPerSide)
		}
		positions[i] = position
		for d := 0; d < dimension; d++ {
			site[d]++
			if site[d] < sitesPerSide {
				break
			}
			site[d] = 0
		}
	}
	return positions
}

// Charges expands the charge list to one value per unit.
func (s *Spec) Charges() []float64 {
	charges := make([]float64, s.Particles.Count)
	for i := range charges {
		switch len(s.Particles.Charges) {
		case 0:
			charges[i] = 1.0
		case 1:
			charges[i] = s.Particles.Charges[0]
		default:
			charges[i] = s.Particles.Charges[i]
		}
	}
	return charges
}

// HasNegativeCharge reports whether any unit carries a negative charge.
// Bound tables need lower bounds exactly in that case.
func (s *Spec) HasNegativeCharge() bool {
	for _, charge := range s.Charges() {
		if charge < 0.0 {
			return true
		}
	}
	return false
}

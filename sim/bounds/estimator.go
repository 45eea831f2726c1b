// Package bounds builds the precomputed derivative-bound tables that drive
// the cell-veto algorithm: an Estimator bounds the directional derivative of
// a pair potential over the geometric extent of a cell separation, and the
// CellBoundTable stores one such bound per non-excluded separation and axis.
package bounds

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ecmc-sim/ecmc-sim/sim/cell"
	"github.com/ecmc-sim/ecmc-sim/sim/potential"
)

// Estimator determines an upper and an optional lower bound on the space
// derivative of a factor potential along one of the cartesian axes, valid
// over the entire box of possible separations spanned by the two corners.
//
// The bound contract is load-bearing: a returned bound that understates the
// true derivative anywhere in the region is a silent statistical bug of the
// whole simulation. The table construction treats it as a precondition; the
// veto handler surfaces violations as runtime warnings.
type Estimator interface {
	// DerivativeBound returns the upper bound, and when calculateLowerBound
	// is set also the lower bound, of the derivative along the axis over the
	// region [lowerCorner, upperCorner].
	DerivativeBound(lowerCorner, upperCorner []float64, axis int, calculateLowerBound bool) (upper, lower float64)
	// ChargeCorrectionFactor returns the multiplicative correction of the
	// estimated bounds for the charge of the active unit.
	ChargeCorrectionFactor(activeCharge float64) float64
}

// EstimatorConfig parameterizes the InnerPointEstimator.
type EstimatorConfig struct {
	Prefactor           float64 `yaml:"prefactor"`             // safety factor on the bounds (default 1.5)
	EmpiricalBound      float64 `yaml:"empirical_bound"`       // cap on the upper bound (default +inf)
	EmpiricalLowerBound float64 `yaml:"empirical_lower_bound"` // cap on the lower bound (default -inf)
	PointsPerSide       int     `yaml:"points_per_side"`       // sample points per axis (default 10)
	TargetCharge        float64 `yaml:"target_charge"`         // charge of the target unit during estimation (default 1)
}

// InnerPointEstimator bounds the derivative by comparing it on an even grid
// of pointsPerSide^dimension separations inside the given region. Separations
// are reduced to their primary periodic image before evaluation.
type InnerPointEstimator struct {
	geometry            *cell.Geometry
	potential           potential.Potential
	prefactor           float64
	empiricalBound      float64
	empiricalLowerBound float64
	pointsPerSide       int
	targetCharge        float64
}

// NewInnerPointEstimator creates the estimator for the given box and
// potential. Zero-valued config fields fall back to their defaults.
func NewInnerPointEstimator(geometry *cell.Geometry, pot potential.Potential, config EstimatorConfig) (*InnerPointEstimator, error) {
	if geometry == nil {
		return nil, fmt.Errorf("estimator: geometry must not be nil")
	}
	if pot == nil {
		return nil, fmt.Errorf("estimator: potential must not be nil")
	}
	e := &InnerPointEstimator{
		geometry:            geometry,
		potential:           pot,
		prefactor:           config.Prefactor,
		empiricalBound:      config.EmpiricalBound,
		empiricalLowerBound: config.EmpiricalLowerBound,
		pointsPerSide:       config.PointsPerSide,
		targetCharge:        config.TargetCharge,
	}
	if e.prefactor == 0 {
		e.prefactor = 1.5
	}
	if !(e.prefactor > 0.0) {
		return nil, fmt.Errorf("estimator: prefactor must be positive, got %v", e.prefactor)
	}
	if e.empiricalBound == 0 {
		e.empiricalBound = math.Inf(1)
	}
	if e.empiricalLowerBound == 0 {
		e.empiricalLowerBound = math.Inf(-1)
	}
	if e.pointsPerSide == 0 {
		e.pointsPerSide = 10
	}
	if e.pointsPerSide < 2 {
		return nil, fmt.Errorf("estimator: points per side must be at least 2, got %d", e.pointsPerSide)
	}
	if e.targetCharge == 0 {
		e.targetCharge = 1.0
	}
	return e, nil
}

// DerivativeBound sweeps the sample grid over the region and returns the
// extremal derivatives scaled away from zero by the safety prefactor and
// clipped by the empirical caps. The charge of the active unit is taken as 1 during
// estimation; ChargeCorrectionFactor corrects for the real charge later.
func (e *InnerPointEstimator) DerivativeBound(lowerCorner, upperCorner []float64, axis int, calculateLowerBound bool) (float64, float64) {
	dimension := e.geometry.Dimension()
	if len(lowerCorner) != dimension || len(upperCorner) != dimension {
		panic(fmt.Sprintf("DerivativeBound: corners %v, %v do not match dimension %d", lowerCorner, upperCorner, dimension))
	}
	for d := 0; d < dimension; d++ {
		if lowerCorner[d] > upperCorner[d] {
			panic(fmt.Sprintf("DerivativeBound: lower corner exceeds upper corner on axis %d", d))
		}
	}
	if axis < 0 || axis >= dimension {
		panic(fmt.Sprintf("DerivativeBound: axis %d out of range", axis))
	}

	velocity := make([]float64, dimension)
	velocity[axis] = 1.0

	maxDerivative := math.Inf(-1)
	minDerivative := math.Inf(1)
	steps := make([]int, dimension)
	separation := make([]float64, dimension)
	corrected := make([]float64, dimension)
	for {
		for d := 0; d < dimension; d++ {
			fraction := float64(steps[d]) / float64(e.pointsPerSide-1)
			separation[d] = lowerCorner[d] + fraction*(upperCorner[d]-lowerCorner[d])
		}
		copy(corrected, separation)
		e.geometry.CorrectSeparation(corrected)
		// A vanishing separation has no defined derivative; the potential is
		// singular there and the point carries no information for the bound.
		if floats.Norm(corrected, 2) > 0.0 {
			derivative := e.potential.Derivative(velocity, corrected, 1.0, e.targetCharge)
			maxDerivative = math.Max(maxDerivative, derivative)
			minDerivative = math.Min(minDerivative, derivative)
		}

		carried := false
		for d := 0; d < dimension; d++ {
			steps[d]++
			if steps[d] < e.pointsPerSide {
				carried = true
				break
			}
			steps[d] = 0
		}
		if !carried {
			break
		}
	}

	// The prefactor widens each bound away from zero, never toward it.
	upper := maxDerivative * e.prefactor
	if maxDerivative < 0.0 {
		upper = maxDerivative / e.prefactor
	}
	upper = math.Min(e.empiricalBound, upper)
	if !calculateLowerBound {
		return upper, 0.0
	}
	lower := minDerivative * e.prefactor
	if minDerivative > 0.0 {
		lower = minDerivative / e.prefactor
	}
	lower = math.Max(e.empiricalLowerBound, lower)
	return upper, lower
}

// ChargeCorrectionFactor returns the active unit's charge for charged
// potentials and 1 otherwise.
func (e *InnerPointEstimator) ChargeCorrectionFactor(activeCharge float64) float64 {
	if e.potential.NumberChargeArguments() == 0 {
		return 1.0
	}
	return activeCharge
}

package potential

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// InversePower implements the inverse power pair potential
// U_ij = c_i * c_j * k / |r_ij|^p with power p > 0 and prefactor k.
// The active unit is unit i.
type InversePower struct {
	power        float64
	prefactor    float64
	charged      bool
	powerPlusTwo float64
}

// NewInversePower creates the potential with the given power and prefactor.
// When charged is false the potential ignores its charge arguments and
// NumberChargeArguments reports 0.
func NewInversePower(power, prefactor float64, charged bool) (*InversePower, error) {
	if !(power > 0.0) {
		return nil, fmt.Errorf("potential: inverse power potential requires a power > 0, got %v", power)
	}
	return &InversePower{
		power:        power,
		prefactor:    prefactor,
		charged:      charged,
		powerPlusTwo: power + 2.0,
	}, nil
}

// Gradient returns the gradient with respect to the active unit's position.
func (p *InversePower) Gradient(separation []float64, chargeOne, chargeTwo float64) []float64 {
	factor := p.gradientFactor(separation, chargeOne, chargeTwo)
	gradient := make([]float64, len(separation))
	for d, entry := range separation {
		gradient[d] = factor * entry
	}
	return gradient
}

// Derivative returns the directional time derivative along the velocity.
func (p *InversePower) Derivative(velocity, separation []float64, chargeOne, chargeTwo float64) float64 {
	return p.gradientFactor(separation, chargeOne, chargeTwo) * floats.Dot(velocity, separation)
}

func (p *InversePower) gradientFactor(separation []float64, chargeOne, chargeTwo float64) float64 {
	norm := floats.Norm(separation, 2)
	if norm == 0.0 {
		return math.Inf(1)
	}
	factor := p.power * p.prefactor / math.Pow(norm, p.powerPlusTwo)
	if p.charged {
		factor *= chargeOne * chargeTwo
	}
	return factor
}

// NumberChargeArguments reports 2 for a charged potential and 0 otherwise.
func (p *InversePower) NumberChargeArguments() int {
	if p.charged {
		return 2
	}
	return 0
}

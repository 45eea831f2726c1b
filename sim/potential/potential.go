// Package potential defines the pair-potential interface consumed by the
// event handlers and the estimator, together with the concrete potentials
// shipped with the simulator.
package potential

import "fmt"

// Potential is a factor potential between two leaf units. The separation is
// always the minimum-image vector r_ij = r_j - r_i pointing from the active
// unit i to the target unit j.
type Potential interface {
	// Gradient returns the gradient of the potential with respect to the
	// position of the active unit, evaluated at the given separation.
	Gradient(separation []float64, chargeOne, chargeTwo float64) []float64
	// Derivative returns the directional time derivative along the given
	// velocity of the active unit. This is the event rate of the
	// interaction when positive.
	Derivative(velocity, separation []float64, chargeOne, chargeTwo float64) float64
	// NumberChargeArguments returns how many charges the potential expects,
	// 0 for chargeless potentials and 2 for pair charges.
	NumberChargeArguments() int
}

// Config selects and parameterizes a concrete potential by name.
type Config struct {
	Type      string  `yaml:"type"`      // "inverse-power" (default)
	Power     float64 `yaml:"power"`     // exponent p (default 1)
	Prefactor float64 `yaml:"prefactor"` // coupling constant k (default 1)
	Charged   bool    `yaml:"charged"`   // whether unit charges enter the potential
}

// New builds the potential selected by the config.
func New(config Config) (Potential, error) {
	power := config.Power
	if power == 0 {
		power = 1.0
	}
	prefactor := config.Prefactor
	if prefactor == 0 {
		prefactor = 1.0
	}
	switch config.Type {
	case "", "inverse-power":
		return NewInversePower(power, prefactor, config.Charged)
	default:
		return nil, fmt.Errorf("potential: unknown potential type %q", config.Type)
	}
}

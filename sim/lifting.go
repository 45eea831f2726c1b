package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// Lifting selects the unit that becomes active after a confirmed event,
// preserving the chain's net direction of motion. The event handler fills
// the derivative table with the factor derivatives of all participating
// time-sliced units, then asks for the next active identifier.
type Lifting interface {
	// Reset clears the derivative table.
	Reset()
	// Insert adds the factor derivative of one unit to the table.
	Insert(liftingRate float64, identifier int, isActive bool)
	// NextActiveIdentifier picks the next active unit from the table.
	NextActiveIdentifier(rng *rand.Rand) int
}

// NewLifting builds the lifting scheme selected by name. An empty name
// selects the ratio lifting.
func NewLifting(name string) (Lifting, error) {
	switch name {
	case "", "ratio":
		return &RatioLifting{}, nil
	default:
		return nil, fmt.Errorf("lifting: unknown lifting scheme %q", name)
	}
}

// RatioLifting implements the ratio lifting scheme: the next active unit is
// drawn among the units with negative factor derivative, with probability
// proportional to the magnitude of that derivative.
type RatioLifting struct {
	negativeRates    []float64
	identifiers      []int
	sumPositiveRates float64
	activeRecorded   bool
}

// Reset clears the derivative table.
func (l *RatioLifting) Reset() {
	l.negativeRates = l.negativeRates[:0]
	l.identifiers = l.identifiers[:0]
	l.sumPositiveRates = 0.0
	l.activeRecorded = false
}

// Insert adds the factor derivative of one unit to the table. Panics when an
// active unit carries a non-positive derivative; an event is only confirmed
// when the active unit climbs the factor potential.
func (l *RatioLifting) Insert(liftingRate float64, identifier int, isActive bool) {
	if liftingRate > 0.0 {
		l.sumPositiveRates += liftingRate
		if isActive {
			l.activeRecorded = true
		}
		return
	}
	if isActive {
		panic(fmt.Sprintf("Insert: active unit %d has non-positive lifting rate %v", identifier, liftingRate))
	}
	l.negativeRates = append(l.negativeRates, -liftingRate)
	l.identifiers = append(l.identifiers, identifier)
}

// NextActiveIdentifier picks the next active unit from the table.
func (l *RatioLifting) NextActiveIdentifier(rng *rand.Rand) int {
	if !l.activeRecorded || len(l.negativeRates) == 0 {
		panic("NextActiveIdentifier: derivative table is incomplete")
	}
	sumNegative := 0.0
	for _, rate := range l.negativeRates {
		sumNegative += rate
	}
	// Factor derivatives sum to zero over all participants.
	if math.Abs(l.sumPositiveRates-sumNegative) > 1.0e-11*math.Max(1.0, sumNegative) {
		panic(fmt.Sprintf("NextActiveIdentifier: positive rates %v and negative rates %v do not balance",
			l.sumPositiveRates, sumNegative))
	}
	randomRate := rng.Float64() * sumNegative
	summed := 0.0
	for index, rate := range l.negativeRates {
		summed += rate
		if randomRate <= summed {
			return l.identifiers[index]
		}
	}
	return l.identifiers[len(l.identifiers)-1]
}

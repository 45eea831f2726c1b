package sim

import "math"

// Time is a simulation time stored as the quotient and remainder of an
// integer division of the time with 1. Candidate event times and unit time
// stamps keep full float resolution on the remainder even when the quotient
// has grown large, so precision survives arbitrarily long runs.
type Time struct {
	quotient  float64
	remainder float64
}

// PositiveInfinity is the candidate event time of an event that never occurs.
var PositiveInfinity = Time{quotient: math.Inf(1), remainder: math.Inf(1)}

// TimeFromFloat splits a float time into quotient and remainder.
func TimeFromFloat(value float64) Time {
	if math.IsInf(value, 1) {
		return PositiveInfinity
	}
	quotient := math.Floor(value)
	return Time{quotient: quotient, remainder: value - quotient}
}

// Add returns the time displaced by the given duration. Adding an infinite
// displacement yields PositiveInfinity.
func (t Time) Add(displacement float64) Time {
	if math.IsInf(displacement, 1) || t.IsInfinite() {
		return PositiveInfinity
	}
	remainder := t.remainder + displacement
	carry := math.Floor(remainder)
	return Time{quotient: t.quotient + carry, remainder: remainder - carry}
}

// Sub returns the duration from the other time to this time.
func (t Time) Sub(other Time) float64 {
	return (t.quotient - other.quotient) + (t.remainder - other.remainder)
}

// Compare orders two times: -1 when t is earlier, 0 when equal, 1 when later.
func (t Time) Compare(other Time) int {
	switch {
	case t.quotient < other.quotient:
		return -1
	case t.quotient > other.quotient:
		return 1
	case t.remainder < other.remainder:
		return -1
	case t.remainder > other.remainder:
		return 1
	default:
		return 0
	}
}

// Before reports whether t is strictly earlier than other.
func (t Time) Before(other Time) bool {
	return t.Compare(other) < 0
}

// IsInfinite reports whether t is the never-occurring time.
func (t Time) IsInfinite() bool {
	return math.IsInf(t.quotient, 1)
}

// Float collapses the time back into a single float, losing the split
// precision. Intended for reporting only.
func (t Time) Float() float64 {
	return t.quotient + t.remainder
}

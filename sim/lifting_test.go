package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLifting(t *testing.T) {
	lifting, err := NewLifting("")
	assert.NoError(t, err)
	assert.IsType(t, &RatioLifting{}, lifting)

	lifting, err = NewLifting("ratio")
	assert.NoError(t, err)
	assert.IsType(t, &RatioLifting{}, lifting)

	_, err = NewLifting("particle-inside-cell")
	assert.Error(t, err)
}

func TestRatioLifting_PairAlwaysPicksTheTarget(t *testing.T) {
	// GIVEN a factor pair: the active unit climbs, the target descends
	lifting := &RatioLifting{}
	lifting.Reset()
	lifting.Insert(2.5, 4, true)
	lifting.Insert(-2.5, 9, false)

	// THEN the only unit with a negative rate is picked
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		assert.Equal(t, 9, lifting.NextActiveIdentifier(rng))
	}
}

func TestRatioLifting_PicksProportionalToNegativeRates(t *testing.T) {
	// GIVEN a three-unit factor with negative rates 1 and 3
	rng := rand.New(rand.NewSource(5))
	counts := map[int]int{}
	const draws = 40000
	for i := 0; i < draws; i++ {
		lifting := &RatioLifting{}
		lifting.Reset()
		lifting.Insert(4.0, 0, true)
		lifting.Insert(-1.0, 1, false)
		lifting.Insert(-3.0, 2, false)
		counts[lifting.NextActiveIdentifier(rng)]++
	}

	// THEN the picks follow the rate ratio 1:3 within 2%
	gotOne := float64(counts[1]) / draws
	gotTwo := float64(counts[2]) / draws
	assert.InDelta(t, 0.25, gotOne, 0.02)
	assert.InDelta(t, 0.75, gotTwo, 0.02)
}

func TestRatioLifting_Reset(t *testing.T) {
	lifting := &RatioLifting{}
	lifting.Reset()
	lifting.Insert(1.0, 0, true)
	lifting.Insert(-1.0, 1, false)
	lifting.Reset()

	// An empty table cannot answer.
	rng := rand.New(rand.NewSource(1))
	assert.Panics(t, func() { lifting.NextActiveIdentifier(rng) })
}

func TestRatioLifting_ActiveWithNonPositiveRatePanics(t *testing.T) {
	// An event is only confirmed when the active unit climbs the factor
	// potential.
	lifting := &RatioLifting{}
	lifting.Reset()
	assert.Panics(t, func() { lifting.Insert(-1.0, 0, true) })
}

func TestRatioLifting_UnbalancedTablePanics(t *testing.T) {
	// Factor derivatives must sum to zero over all participants.
	lifting := &RatioLifting{}
	lifting.Reset()
	lifting.Insert(2.0, 0, true)
	lifting.Insert(-1.0, 1, false)
	rng := rand.New(rand.NewSource(1))
	assert.Panics(t, func() { lifting.NextActiveIdentifier(rng) })
}

package walker

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalker_ConstructionErrors(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New([]Item{{Index: 0, Rate: 1.0}, {Index: 1, Rate: -0.5}})
	assert.Error(t, err)
}

func TestWalker_TotalRateIsExact(t *testing.T) {
	// GIVEN items with known rates
	items := []Item{
		{Index: 0, Rate: 0.5},
		{Index: 1, Rate: 1.25},
		{Index: 2, Rate: 0.0},
		{Index: 3, Rate: 3.25},
	}

	// WHEN the alias table is built
	w, err := New(items)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// THEN the total and mean rates are exact sums, not sampled estimates
	assert.Equal(t, 5.0, w.TotalRate())
	assert.Equal(t, 1.25, w.MeanRate())
	assert.Equal(t, len(items), w.NumBuckets())
}

func TestWalker_BucketsSumToMeanRate(t *testing.T) {
	// GIVEN an uneven distribution
	items := []Item{
		{Index: 0, Rate: 0.1},
		{Index: 1, Rate: 2.9},
		{Index: 2, Rate: 0.7},
		{Index: 3, Rate: 0.3},
	}
	w, err := New(items)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// THEN every bucket carries exactly the mean rate
	for i, b := range w.table {
		mass := b.first.Rate
		if b.hasSecond {
			mass += b.second.Rate
		}
		if math.Abs(mass-w.MeanRate()) > 1.0e-12 {
			t.Errorf("bucket %d: mass %v, want mean rate %v", i, mass, w.MeanRate())
		}
	}
}

func TestWalker_SampleFrequenciesMatchRates(t *testing.T) {
	// GIVEN a known distribution and a fixed random stream
	items := []Item{
		{Index: 7, Rate: 1.0},
		{Index: 3, Rate: 2.0},
		{Index: 5, Rate: 0.0},
		{Index: 1, Rate: 5.0},
	}
	w, err := New(items)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rng := rand.New(rand.NewSource(42))

	// WHEN many samples are drawn
	const draws = 200000
	counts := make(map[int]int)
	for i := 0; i < draws; i++ {
		counts[w.Sample(rng)]++
	}

	// THEN the empirical frequencies match the rates within 1%
	for _, item := range items {
		want := item.Rate / w.TotalRate()
		got := float64(counts[item.Index]) / draws
		if math.Abs(got-want) > 0.01 {
			t.Errorf("index %d: frequency %v, want %v", item.Index, got, want)
		}
	}
}

func TestWalker_SingleItem(t *testing.T) {
	w, err := New([]Item{{Index: 9, Rate: 4.0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		assert.Equal(t, 9, w.Sample(rng))
	}
}

func TestWalker_ZeroTotalRate(t *testing.T) {
	// GIVEN a table whose rates are all zero
	w, err := New([]Item{{Index: 0, Rate: 0.0}, {Index: 1, Rate: 0.0}})

	// THEN construction is legal but sampling panics
	assert.NoError(t, err)
	assert.Equal(t, 0.0, w.TotalRate())
	rng := rand.New(rand.NewSource(1))
	assert.Panics(t, func() { w.Sample(rng) })
}

// Package walker implements Walker's alias method: an O(1)-query sampler for
// an arbitrary discrete distribution, built once from its weights. The
// cell-veto event handlers use one sampler per axis of motion, weighted by
// the per-separation derivative bounds, to draw a target cell separation.
package walker

import (
	"fmt"
	"math/rand"
)

// Item associates a candidate index with a non-negative event rate.
type Item struct {
	Index int
	Rate  float64
}

type bucket struct {
	first     Item
	second    Item
	hasSecond bool
}

// Walker stores the alias table, the mean rate per bucket, and the total
// event rate. It is immutable after construction and may be shared read-only
// by any number of event handlers.
type Walker struct {
	totalRate float64
	meanRate  float64
	table     []bucket
}

// New builds the alias table from the given items in O(n log n) or better.
// Every item's rate contribution is split across at most two buckets, and
// the entries of each bucket sum exactly to the mean rate.
//
// A table whose rates are all zero is legal (Sample then panics, but the
// handler never samples a zero-total direction because its candidate
// displacement is infinite).
func New(items []Item) (*Walker, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("walker: at least one item is required")
	}
	total := 0.0
	for _, item := range items {
		if item.Rate < 0.0 {
			return nil, fmt.Errorf("walker: item %d has negative rate %v", item.Index, item.Rate)
		}
		total += item.Rate
	}

	w := &Walker{
		totalRate: total,
		meanRate:  total / float64(len(items)),
		table:     make([]bucket, 0, len(items)),
	}
	w.buildTable(items)
	return w, nil
}

func (w *Walker) buildTable(items []Item) {
	var small, large []Item
	for _, item := range items {
		if item.Rate > w.meanRate {
			large = append(large, item)
		} else {
			small = append(small, item)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		smallItem := small[len(small)-1]
		small = small[:len(small)-1]
		largeItem := large[len(large)-1]
		large = large[:len(large)-1]

		w.table = append(w.table, bucket{
			first:     smallItem,
			second:    Item{Index: largeItem.Index, Rate: w.meanRate - smallItem.Rate},
			hasSecond: true,
		})
		largeItem.Rate -= w.meanRate - smallItem.Rate

		if largeItem.Rate < w.meanRate {
			small = append(small, largeItem)
		} else {
			large = append(large, largeItem)
		}
	}

	// Leftovers carry the mean rate up to rounding noise.
	for _, item := range small {
		w.table = append(w.table, bucket{first: Item{Index: item.Index, Rate: w.meanRate}})
	}
	for _, item := range large {
		w.table = append(w.table, bucket{first: Item{Index: item.Index, Rate: w.meanRate}})
	}
}

// Sample draws an index with probability proportional to its rate, in O(1).
func (w *Walker) Sample(rng *rand.Rand) int {
	if !(w.totalRate > 0.0) {
		panic("Sample: total rate of the alias table is zero")
	}
	chosen := w.table[rng.Intn(len(w.table))]
	if !chosen.hasSecond || rng.Float64()*w.meanRate < chosen.first.Rate {
		return chosen.first.Index
	}
	return chosen.second.Index
}

// TotalRate returns the sum of all item rates. This is the overall candidate
// event rate that converts a sampled potential change into a displacement.
func (w *Walker) TotalRate() float64 {
	return w.totalRate
}

// MeanRate returns the rate mass held by each bucket of the table.
func (w *Walker) MeanRate() float64 {
	return w.meanRate
}

// NumBuckets returns the number of buckets of the alias table.
func (w *Walker) NumBuckets() int {
	return len(w.table)
}

package colour

import (
	"iter"
	"maps"
	"slices"
	"sync"
)

// Sample is a distinct RGB colour and the number of pixels sharing it.
type Sample struct {
	RGB   RGB    `json:"rgb"`
	Count uint64 `json:"count"`
}

// Stats describes what an Aggregator has seen so far.
// Retained + Filtered always equals Scanned.
type Stats struct {
	Scanned  uint64 `json:"scanned"`
	Filtered uint64 `json:"filtered"`
	Retained uint64 `json:"retained"`
	Distinct int    `json:"distinct"`
}

// Aggregator deduplicates pixel streams into frequency-weighted samples.
// Pixels whose alpha is below the threshold are counted as filtered and dropped.
//
// Add may be called concurrently; each call accumulates privately and merges
// into the shared counts under a lock.
type Aggregator struct {
	threshold uint8

	mu       sync.Mutex
	counts   map[RGB]uint64
	scanned  uint64
	filtered uint64
}

// NewAggregator creates an Aggregator admitting pixels with alpha >= threshold.
func NewAggregator(threshold uint8) *Aggregator {
	return &Aggregator{
		threshold: threshold,
		counts:    make(map[RGB]uint64),
	}
}

// Add consumes a pixel stream.
func (a *Aggregator) Add(pixels iter.Seq[Color]) {
	local := make(map[RGB]uint64)
	var scanned, filtered uint64

	for p := range pixels {
		scanned++
		if p.A < a.threshold {
			filtered++
			continue
		}
		local[p.RGB()]++
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for rgb, n := range local {
		a.counts[rgb] += n
	}
	a.scanned += scanned
	a.filtered += filtered
}

// Samples returns the aggregated samples in ascending RGB order.
func (a *Aggregator) Samples() []Sample {
	a.mu.Lock()
	defer a.mu.Unlock()

	samples := make([]Sample, 0, len(a.counts))
	for _, rgb := range slices.SortedFunc(maps.Keys(a.counts), RGB.Compare) {
		samples = append(samples, Sample{RGB: rgb, Count: a.counts[rgb]})
	}
	return samples
}

// Stats returns the counters accumulated so far.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Stats{
		Scanned:  a.scanned,
		Filtered: a.filtered,
		Retained: a.scanned - a.filtered,
		Distinct: len(a.counts),
	}
}

// Aggregate is a convenience wrapper that runs a fresh Aggregator over the given streams.
func Aggregate(threshold uint8, streams ...iter.Seq[Color]) ([]Sample, Stats) {
	agg := NewAggregator(threshold)
	for _, s := range streams {
		agg.Add(s)
	}
	return agg.Samples(), agg.Stats()
}

// population sums the counts of the given samples.
func population(samples []Sample) uint64 {
	var total uint64
	for _, s := range samples {
		total += s.Count
	}
	return total
}

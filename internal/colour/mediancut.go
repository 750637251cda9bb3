package colour

import (
	"cmp"
	"container/heap"
	"slices"
)

// MedianCutQuantizer partitions the samples into axis-aligned boxes, always
// splitting the most populated box at its weighted median, and emits the
// weighted mean of each box.
//
// It reaches exactly min(size, distinct colours) boxes.
type MedianCutQuantizer struct{}

// NewMedianCutQuantizer creates a new MedianCutQuantizer.
func NewMedianCutQuantizer() *MedianCutQuantizer {
	return &MedianCutQuantizer{}
}

// Method returns MethodMedianCut.
func (q *MedianCutQuantizer) Method() Method {
	return MethodMedianCut
}

// Quantize reduces the samples to at most size colours.
// Samples sharing an RGB value are merged first, so every box of two or more
// samples spans at least two distinct colours.
func (q *MedianCutQuantizer) Quantize(samples []Sample, size int) (*Palette, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}
	samples = mergeSamples(samples)
	if len(samples) == 0 {
		return NewPalette(nil, size), nil
	}

	seq := 0
	work := &boxHeap{}
	heap.Push(work, newColorBox(samples, seq))
	seq++

	var final []*colorBox
	for work.Len() > 0 && work.Len()+len(final) < size {
		box := heap.Pop(work).(*colorBox)
		if len(box.samples) < 2 {
			final = append(final, box)
			continue
		}

		left, right := box.split(seq)
		seq += 2
		heap.Push(work, left)
		heap.Push(work, right)
	}

	boxes := append(final, *work...)
	slices.SortFunc(boxes, func(a, b *colorBox) int {
		return cmp.Compare(a.seq, b.seq)
	})

	colors := make([]RGB, len(boxes))
	for i, box := range boxes {
		colors[i] = box.mean()
	}
	return NewPalette(colors, size), nil
}

// mergeSamples returns a copy of samples in RGB order with duplicate colours
// combined into one sample carrying the summed count.
func mergeSamples(samples []Sample) []Sample {
	sorted := slices.SortedStableFunc(slices.Values(samples), func(a, b Sample) int {
		return a.RGB.Compare(b.RGB)
	})

	merged := sorted[:0]
	for _, s := range sorted {
		if n := len(merged); n > 0 && merged[n-1].RGB == s.RGB {
			merged[n-1].Count += s.Count
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// colorBox is a region of RGB space holding a contiguous run of samples.
type colorBox struct {
	samples    []Sample
	min, max   RGB
	population uint64
	seq        int
}

// newColorBox computes the bounds and population of the given samples.
func newColorBox(samples []Sample, seq int) *colorBox {
	box := &colorBox{
		samples: samples,
		min:     RGB{R: 255, G: 255, B: 255},
		seq:     seq,
	}
	for _, s := range samples {
		box.population += s.Count
		box.min.R = min(box.min.R, s.RGB.R)
		box.min.G = min(box.min.G, s.RGB.G)
		box.min.B = min(box.min.B, s.RGB.B)
		box.max.R = max(box.max.R, s.RGB.R)
		box.max.G = max(box.max.G, s.RGB.G)
		box.max.B = max(box.max.B, s.RGB.B)
	}
	return box
}

// widest returns the channel with the largest extent and that extent.
// Ties prefer red, then green.
func (b *colorBox) widest() (channel, uint8) {
	ch, span := red, b.max.R-b.min.R
	if g := b.max.G - b.min.G; g > span {
		ch, span = green, g
	}
	if bl := b.max.B - b.min.B; bl > span {
		ch, span = blue, bl
	}
	return ch, span
}

// split sorts the box along its widest channel and cuts it at the weighted median.
// The box must hold at least two distinct samples.
func (b *colorBox) split(seq int) (*colorBox, *colorBox) {
	ch, _ := b.widest()
	slices.SortStableFunc(b.samples, func(x, y Sample) int {
		return cmp.Compare(x.RGB.channel(ch), y.RGB.channel(ch))
	})

	// First index where the cumulative count reaches half the population,
	// clamped so that both halves keep at least one sample.
	median := len(b.samples) - 2
	var cumulative uint64
	for i, s := range b.samples[:len(b.samples)-1] {
		cumulative += s.Count
		if 2*cumulative >= b.population {
			median = i
			break
		}
	}

	return newColorBox(b.samples[:median+1], seq), newColorBox(b.samples[median+1:], seq+1)
}

// mean returns the count-weighted average colour, rounded half up.
func (b *colorBox) mean() RGB {
	return weightedMean(b.samples)
}

// weightedMean averages samples by count, rounding each channel half up.
func weightedMean(samples []Sample) RGB {
	var r, g, bl, n uint64
	for _, s := range samples {
		r += uint64(s.RGB.R) * s.Count
		g += uint64(s.RGB.G) * s.Count
		bl += uint64(s.RGB.B) * s.Count
		n += s.Count
	}
	return RGB{R: roundDiv(r, n), G: roundDiv(g, n), B: roundDiv(bl, n)}
}

// roundDiv divides sum by n rounding half up. n must be non-zero.
func roundDiv(sum, n uint64) uint8 {
	return uint8((2*sum + n) / (2 * n))
}

// boxHeap orders boxes by population, then by widest extent, then by creation order.
type boxHeap []*colorBox

func (h boxHeap) Len() int { return len(h) }

func (h boxHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.population != b.population {
		return a.population > b.population
	}
	_, spanA := a.widest()
	_, spanB := b.widest()
	if spanA != spanB {
		return spanA > spanB
	}
	return a.seq < b.seq
}

func (h boxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *boxHeap) Push(x any) { *h = append(*h, x.(*colorBox)) }

func (h *boxHeap) Pop() any {
	old := *h
	n := len(old)
	box := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return box
}

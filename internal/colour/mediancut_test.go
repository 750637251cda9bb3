package colour

import (
	"container/heap"
	"errors"
	"slices"
	"testing"
)

// randomSamples aggregates reproducible pixels into samples.
func randomSamples(seed uint64, n int) []Sample {
	samples, _ := Aggregate(0, slices.Values(randomPixels(seed, n)))
	return samples
}

func opaque(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

func TestMedianCutScenarios(t *testing.T) {
	tests := []struct {
		name   string
		pixels []Color
		size   int
		want   []RGB
	}{
		{
			name:   "black and white pairs",
			pixels: []Color{opaque(0, 0, 0), opaque(0, 0, 0), opaque(255, 255, 255), opaque(255, 255, 255)},
			size:   2,
			want:   []RGB{{0, 0, 0}, {255, 255, 255}},
		},
		{
			name:   "three colours with room to spare",
			pixels: []Color{opaque(10, 200, 30), opaque(10, 200, 30), opaque(250, 0, 0), opaque(5, 5, 250)},
			size:   256,
			want:   []RGB{{5, 5, 250}, {10, 200, 30}, {250, 0, 0}},
		},
		{
			name:   "heavy tail moves the median",
			pixels: []Color{opaque(0, 0, 0), opaque(10, 0, 0), opaque(100, 0, 0), opaque(200, 0, 0), opaque(200, 0, 0), opaque(200, 0, 0), opaque(200, 0, 0), opaque(200, 0, 0)},
			size:   2,
			want:   []RGB{{37, 0, 0}, {200, 0, 0}},
		},
		{
			name:   "boxes emitted in creation order",
			pixels: []Color{opaque(0, 0, 0), opaque(0, 0, 0), opaque(50, 0, 0), opaque(50, 0, 0), opaque(0, 0, 200), opaque(0, 0, 200)},
			size:   3,
			want:   []RGB{{0, 0, 200}, {0, 0, 0}, {50, 0, 0}},
		},
		{
			name:   "single box averages everything",
			pixels: []Color{opaque(0, 0, 0), opaque(255, 255, 255)},
			size:   1,
			want:   []RGB{{128, 128, 128}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, _ := Aggregate(0, slices.Values(tt.pixels))
			palette, err := NewMedianCutQuantizer().Quantize(samples, tt.size)
			if err != nil {
				t.Fatalf("Quantize() error = %v", err)
			}
			if !slices.Equal(palette.Colors, tt.want) {
				t.Errorf("Quantize() = %v, want %v", palette.Colors, tt.want)
			}
			if palette.Requested != tt.size {
				t.Errorf("Requested = %d, want %d", palette.Requested, tt.size)
			}
		})
	}
}

func TestMedianCutExactness(t *testing.T) {
	samples := randomSamples(42, 4000)
	distinct := len(samples)

	for _, size := range []int{1, 2, 3, 7, 16, 64, distinct - 1, distinct, distinct + 10, 1000} {
		palette, err := NewMedianCutQuantizer().Quantize(slices.Clone(samples), size)
		if err != nil {
			t.Fatalf("size %d: Quantize() error = %v", size, err)
		}
		if got, want := palette.Achieved(), min(size, distinct); got != want {
			t.Errorf("size %d: achieved %d, want %d", size, got, want)
		}
	}
}

func TestMedianCutDistinctInputReturnedExactly(t *testing.T) {
	samples := randomSamples(5, 300)
	palette, err := NewMedianCutQuantizer().Quantize(slices.Clone(samples), len(samples))
	if err != nil {
		t.Fatalf("Quantize() error = %v", err)
	}

	got := slices.SortedFunc(slices.Values(palette.Colors), RGB.Compare)
	want := make([]RGB, len(samples))
	for i, s := range samples {
		want[i] = s.RGB
	}
	if !slices.Equal(got, want) {
		t.Error("palette is not the set of distinct input colours")
	}
}

func TestMedianCutDeterminism(t *testing.T) {
	px := randomPixels(9, 3000)
	reversed := slices.Clone(px)
	slices.Reverse(reversed)

	a, _ := Aggregate(0, slices.Values(px))
	b, _ := Aggregate(0, slices.Values(reversed))

	pa, err := NewMedianCutQuantizer().Quantize(a, 12)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := NewMedianCutQuantizer().Quantize(b, 12)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(pa.Colors, pb.Colors) {
		t.Errorf("palettes differ:\n%v\n%v", pa.Colors, pb.Colors)
	}
}

func TestMedianCutMergesDuplicateSamples(t *testing.T) {
	samples := []Sample{
		{RGB: RGB{1, 1, 1}, Count: 1},
		{RGB: RGB{9, 9, 9}, Count: 1},
		{RGB: RGB{1, 1, 1}, Count: 1},
	}

	palette, err := NewMedianCutQuantizer().Quantize(samples, 3)
	if err != nil {
		t.Fatalf("Quantize() error = %v", err)
	}
	if want := []RGB{{1, 1, 1}, {9, 9, 9}}; !slices.Equal(palette.Colors, want) {
		t.Errorf("Quantize() = %v, want %v", palette.Colors, want)
	}
	if samples[0].Count != 1 || samples[1].RGB != (RGB{9, 9, 9}) {
		t.Error("Quantize() modified the caller's samples")
	}
}

func TestMergeSamples(t *testing.T) {
	got := mergeSamples([]Sample{
		{RGB: RGB{5, 0, 0}, Count: 2},
		{RGB: RGB{1, 0, 0}, Count: 1},
		{RGB: RGB{5, 0, 0}, Count: 3},
	})
	want := []Sample{
		{RGB: RGB{1, 0, 0}, Count: 1},
		{RGB: RGB{5, 0, 0}, Count: 5},
	}
	if !slices.Equal(got, want) {
		t.Errorf("mergeSamples() = %v, want %v", got, want)
	}
	if got := mergeSamples(nil); len(got) != 0 {
		t.Errorf("mergeSamples(nil) = %v, want empty", got)
	}
}

func TestMedianCutEmpty(t *testing.T) {
	palette, err := NewMedianCutQuantizer().Quantize(nil, 4)
	if err != nil {
		t.Fatalf("Quantize() error = %v", err)
	}
	if palette.Achieved() != 0 {
		t.Errorf("achieved %d, want 0", palette.Achieved())
	}
}

func TestMedianCutInvalidSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		_, err := NewMedianCutQuantizer().Quantize(randomSamples(1, 10), size)
		if !errors.Is(err, ErrInvalidPaletteSize) {
			t.Errorf("size %d: error = %v, want ErrInvalidPaletteSize", size, err)
		}
	}
}

func TestColorBoxMeanWithinBounds(t *testing.T) {
	samples := randomSamples(11, 2000)
	work := []*colorBox{newColorBox(samples, 0)}
	seq := 1

	for len(work) > 0 {
		box := work[0]
		work = work[1:]

		m := box.mean()
		if m.R < box.min.R || m.R > box.max.R ||
			m.G < box.min.G || m.G > box.max.G ||
			m.B < box.min.B || m.B > box.max.B {
			t.Fatalf("mean %v outside box bounds %v..%v", m, box.min, box.max)
		}

		if len(box.samples) >= 2 {
			left, right := box.split(seq)
			seq += 2
			if len(left.samples) == 0 || len(right.samples) == 0 {
				t.Fatal("split produced an empty box")
			}
			if left.population+right.population != box.population {
				t.Fatal("split lost population")
			}
			work = append(work, left, right)
		}
	}
}

func TestColorBoxWidest(t *testing.T) {
	tests := []struct {
		name     string
		min, max RGB
		want     channel
	}{
		{name: "red widest", min: RGB{0, 0, 0}, max: RGB{90, 10, 10}, want: red},
		{name: "green widest", min: RGB{0, 0, 0}, max: RGB{10, 90, 10}, want: green},
		{name: "blue widest", min: RGB{0, 0, 0}, max: RGB{10, 10, 90}, want: blue},
		{name: "tie prefers red", min: RGB{0, 0, 0}, max: RGB{50, 50, 50}, want: red},
		{name: "tie prefers green over blue", min: RGB{0, 0, 0}, max: RGB{10, 50, 50}, want: green},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := &colorBox{min: tt.min, max: tt.max}
			if got, _ := box.widest(); got != tt.want {
				t.Errorf("widest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoxHeapOrdering(t *testing.T) {
	h := &boxHeap{}
	boxes := []*colorBox{
		{population: 10, min: RGB{0, 0, 0}, max: RGB{10, 0, 0}, seq: 0},
		{population: 10, min: RGB{0, 0, 0}, max: RGB{40, 0, 0}, seq: 1},
		{population: 10, min: RGB{0, 0, 0}, max: RGB{40, 0, 0}, seq: 2},
		{population: 99, min: RGB{0, 0, 0}, max: RGB{1, 0, 0}, seq: 3},
	}
	for _, b := range boxes {
		heap.Push(h, b)
	}

	var order []int
	for h.Len() > 0 {
		order = append(order, heap.Pop(h).(*colorBox).seq)
	}
	if want := []int{3, 1, 2, 0}; !slices.Equal(order, want) {
		t.Errorf("pop order = %v, want %v", order, want)
	}
}

package colour

import (
	"slices"
	"testing"
)

func TestSortHSV(t *testing.T) {
	var (
		black  = RGB{0, 0, 0}
		grey   = RGB{128, 128, 128}
		white  = RGB{255, 255, 255}
		red    = RGB{255, 0, 0}
		yellow = RGB{255, 255, 0}
		green  = RGB{0, 255, 0}
		blue   = RGB{0, 0, 255}
		pink   = RGB{255, 128, 128}
	)

	tests := []struct {
		name  string
		input []RGB
		want  []RGB
	}{
		{
			name:  "hue first",
			input: []RGB{blue, green, yellow, red},
			want:  []RGB{red, yellow, green, blue},
		},
		{
			name:  "achromatic sorted by value before saturated hues",
			input: []RGB{blue, white, red, black, green, yellow, grey},
			want:  []RGB{black, grey, white, red, yellow, green, blue},
		},
		{
			name:  "saturation breaks hue ties",
			input: []RGB{red, pink},
			want:  []RGB{pink, red},
		},
		{
			name:  "empty",
			input: []RGB{},
			want:  []RGB{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPalette(slices.Clone(tt.input), len(tt.input))
			SortHSV(p)
			if !slices.Equal(p.Colors, tt.want) {
				t.Errorf("SortHSV() = %v, want %v", p.Colors, tt.want)
			}
		})
	}
}

func TestSortHSVIdempotent(t *testing.T) {
	samples := randomSamples(17, 3000)
	colors := make([]RGB, len(samples))
	for i, s := range samples {
		colors[i] = s.RGB
	}

	p := NewPalette(colors, len(colors))
	SortHSV(p)
	once := slices.Clone(p.Colors)
	SortHSV(p)
	if !slices.Equal(once, p.Colors) {
		t.Error("sorting a sorted palette changed it")
	}
}

func TestSortHSVStableForDuplicates(t *testing.T) {
	p := NewPalette([]RGB{{10, 20, 30}, {1, 1, 1}, {10, 20, 30}}, 3)
	SortHSV(p)
	if len(p.Colors) != 3 {
		t.Fatalf("Len() = %d, want 3", len(p.Colors))
	}
	if p.Colors[0] != (RGB{1, 1, 1}) {
		t.Errorf("first colour = %v, want achromatic (1,1,1)", p.Colors[0])
	}
}

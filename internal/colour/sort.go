package colour

import (
	"cmp"
	"slices"
)

// SortHSV orders the palette in place by hue, then saturation, then value,
// all ascending. The sort is stable, so colours with identical HSV keep their
// relative order and sorting a sorted palette is a no-op.
func SortHSV(p *Palette) {
	type keyed struct {
		rgb     RGB
		h, s, v float64
	}

	keys := make([]keyed, len(p.Colors))
	for i, c := range p.Colors {
		h, s, v := c.HSV()
		keys[i] = keyed{rgb: c, h: h, s: s, v: v}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int {
		return cmp.Or(
			cmp.Compare(a.h, b.h),
			cmp.Compare(a.s, b.s),
			cmp.Compare(a.v, b.v),
		)
	})

	for i, k := range keys {
		p.Colors[i] = k.rgb
	}
}

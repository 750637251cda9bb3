package colour

// Palette represents an ordered collection of colours produced by a quantizer.
type Palette struct {
	Colors []RGB

	// Requested is the palette size that was asked for.
	Requested int
}

// NewPalette creates a new Palette with the given colours and requested size.
func NewPalette(colors []RGB, requested int) *Palette {
	if colors == nil {
		colors = []RGB{}
	}
	return &Palette{
		Colors:    colors,
		Requested: requested,
	}
}

// Achieved returns the number of colours actually produced.
// It can be lower than Requested when the input has few distinct colours or
// when octree reduction overshoots.
func (p *Palette) Achieved() int {
	return len(p.Colors)
}

// Short reports whether fewer colours than requested were produced.
func (p *Palette) Short() bool {
	return p.Achieved() < p.Requested
}

// ColorJSON represents a colour in JSON output format.
type ColorJSON struct {
	Hex string  `json:"hex"`
	RGB RGB     `json:"rgb"`
	HSV HSVJSON `json:"hsv"`
}

// HSVJSON is the HSV view of a colour in JSON output.
type HSVJSON struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Requested int         `json:"requested"`
	Achieved  int         `json:"achieved"`
	Colors    []ColorJSON `json:"colors"`
}

// JSON returns the JSON document model of the palette.
func (p *Palette) JSON() PaletteJSON {
	colors := make([]ColorJSON, len(p.Colors))
	for i, c := range p.Colors {
		h, s, v := c.HSV()
		colors[i] = ColorJSON{
			Hex: c.Hex(),
			RGB: c,
			HSV: HSVJSON{H: h, S: s, V: v},
		}
	}

	return PaletteJSON{
		Requested: p.Requested,
		Achieved:  p.Achieved(),
		Colors:    colors,
	}
}

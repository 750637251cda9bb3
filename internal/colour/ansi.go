package colour

import (
	"strings"

	"github.com/fatih/color"
)

const defaultWidth = 8

// Painter renders palette colours with 24-bit ANSI escape sequences.
// A disabled Painter returns text unchanged.
type Painter struct {
	enabled bool
}

// NewPainter creates a Painter. Pass false for files, pipes and --uncolored.
func NewPainter(enabled bool) *Painter {
	return &Painter{enabled: enabled}
}

func (p *Painter) style(c *color.Color) *color.Color {
	if p.enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Foreground returns text drawn in the given colour.
func (p *Painter) Foreground(rgb RGB, text string) string {
	return p.style(color.RGB(int(rgb.R), int(rgb.G), int(rgb.B))).Sprint(text)
}

// Bold returns text in bold.
func (p *Painter) Bold(text string) string {
	return p.style(color.New(color.Bold)).Sprint(text)
}

// Swatch returns a solid block of the given colour, width characters wide,
// with an optional centred label in a contrasting colour.
// A disabled Painter returns the label padded to width.
func (p *Painter) Swatch(rgb RGB, label string, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	if len(label) > width {
		label = label[:width]
	}
	padding := (width - len(label)) / 2
	text := strings.Repeat(" ", padding) + label + strings.Repeat(" ", width-len(label)-padding)

	c := color.BgRGB(int(rgb.R), int(rgb.G), int(rgb.B))
	if Luminance(rgb) > 0.5 {
		c.AddRGB(0, 0, 0)
	} else {
		c.AddRGB(255, 255, 255)
	}
	return p.style(c).Sprint(text)
}

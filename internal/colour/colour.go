// Package colour provides colour aggregation, quantization and palette functionality.
package colour

import (
	"cmp"
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a single pixel value with 8-bit channels and straight (non-premultiplied) alpha.
type Color struct {
	R, G, B, A uint8
}

// RGB drops the alpha channel.
func (c Color) RGB() RGB {
	return RGB{R: c.R, G: c.G, B: c.B}
}

// Compare orders colours by their channel tuple (R, G, B, A).
func (c Color) Compare(other Color) int {
	return cmp.Or(
		c.RGB().Compare(other.RGB()),
		cmp.Compare(c.A, other.A),
	)
}

// RGB represents a colour in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB colour in the format "(r,g,b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("(%d,%d,%d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a zero-padded hex string (e.g., "#1A2B3C").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", rgb.R, rgb.G, rgb.B)
}

// Compare orders colours by their channel tuple.
func (rgb RGB) Compare(other RGB) int {
	return cmp.Or(
		cmp.Compare(rgb.R, other.R),
		cmp.Compare(rgb.G, other.G),
		cmp.Compare(rgb.B, other.B),
	)
}

// channel returns the value of the given channel.
func (rgb RGB) channel(ch channel) uint8 {
	switch ch {
	case red:
		return rgb.R
	case green:
		return rgb.G
	default:
		return rgb.B
	}
}

// HSV returns hue in degrees [0, 360), saturation and value in [0, 1].
// Achromatic colours report a hue of 0.
func (rgb RGB) HSV() (h, s, v float64) {
	return colorful.Color{
		R: float64(rgb.R) / 255.0,
		G: float64(rgb.G) / 255.0,
		B: float64(rgb.B) / 255.0,
	}.Hsv()
}

// RGBA implements color.Color so palettes can be handed to image/draw.
func (rgb RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}.RGBA()
}

// ToRGB converts a color.Color to RGB.
// Premultiplied colours are converted to straight alpha first.
func ToRGB(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// channel identifies one of the three RGB axes.
type channel uint8

const (
	red channel = iota
	green
	blue
)

// String returns the channel name.
func (ch channel) String() string {
	switch ch {
	case red:
		return "red"
	case green:
		return "green"
	default:
		return "blue"
	}
}

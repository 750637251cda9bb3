package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmylchreest/palettize/internal/colour"
)

// outputFormat selects how palettes are rendered.
type outputFormat string

const (
	formatText  outputFormat = "text"
	formatJSON  outputFormat = "json"
	formatTable outputFormat = "table"
)

func validFormats() []outputFormat {
	return []outputFormat{formatText, formatJSON, formatTable}
}

func parseFormat(s string) (outputFormat, error) {
	f := outputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case formatText, formatJSON, formatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: %v)", s, validFormats())
	}
}

// report is one quantized palette together with the inputs it was built from.
type report struct {
	Sources []string
	Result  *colour.Result
}

// title names the palette in text and table output.
func (r report) title(index int) string {
	if len(r.Sources) == 1 {
		return fmt.Sprintf("Image %d: %s", index+1, r.Sources[0])
	}
	return fmt.Sprintf("Palette from %d images", len(r.Sources))
}

// renderOptions controls how colours are printed.
type renderOptions struct {
	format  outputFormat
	rgb     bool
	hex     bool
	painter *colour.Painter
}

// render writes every report to w in the selected format.
func render(w io.Writer, reports []report, opts renderOptions) error {
	if opts.painter == nil {
		opts.painter = colour.NewPainter(false)
	}

	switch opts.format {
	case formatJSON:
		return renderJSON(w, reports)
	case formatTable:
		return renderTable(w, reports, opts)
	default:
		return renderText(w, reports, opts)
	}
}

// colourLabel formats one colour as decimal, hex or both.
// Decimal is the default when neither is requested.
func colourLabel(c colour.RGB, rgb, hex bool) string {
	switch {
	case rgb && hex:
		return c.String() + " " + c.Hex()
	case hex:
		return c.Hex()
	default:
		return c.String()
	}
}

// summary reports the achieved size next to the requested one.
func summary(res *colour.Result) string {
	s := fmt.Sprintf("%d of %d colours", res.Achieved, res.Requested)
	if res.Palette.Short() {
		s += " (fewer colours than requested)"
	}
	return s
}

func renderText(w io.Writer, reports []report, opts renderOptions) error {
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(opts.painter.Bold(r.title(i)))
		b.WriteString("\n")
		for _, c := range r.Result.Palette.Colors {
			b.WriteString(opts.painter.Foreground(c, colourLabel(c, opts.rgb, opts.hex)))
			b.WriteString("\n")
		}
		b.WriteString(summary(r.Result))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderTable(w io.Writer, reports []report, opts renderOptions) error {
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(opts.painter.Bold(r.title(i)))
		b.WriteString("\n")

		table := NewTable([]string{"#", "Hex", "RGB", "Hue", "Sat", "Val", "Swatch"})
		for n, c := range r.Result.Palette.Colors {
			h, s, v := c.HSV()
			table.AddRow([]string{
				strconv.Itoa(n + 1),
				c.Hex(),
				c.String(),
				strconv.FormatFloat(h, 'f', 1, 64),
				strconv.FormatFloat(s, 'f', 3, 64),
				strconv.FormatFloat(v, 'f', 3, 64),
				opts.painter.Swatch(c, "", 6),
			})
		}
		b.WriteString(table.Render())
		b.WriteString(summary(r.Result))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// paletteDocument is the JSON form of one report.
type paletteDocument struct {
	Sources []string `json:"sources"`
	Method  string   `json:"method"`
	colour.PaletteJSON
	Stats colour.Stats `json:"stats"`
}

// outputDocument is the top-level JSON document.
type outputDocument struct {
	Palettes []paletteDocument `json:"palettes"`
}

func renderJSON(w io.Writer, reports []report) error {
	doc := outputDocument{Palettes: make([]paletteDocument, 0, len(reports))}
	for _, r := range reports {
		doc.Palettes = append(doc.Palettes, paletteDocument{
			Sources:     r.Sources,
			Method:      r.Result.Method.String(),
			PaletteJSON: r.Result.Palette.JSON(),
			Stats:       r.Result.Stats,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to convert to JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

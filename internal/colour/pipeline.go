package colour

import (
	"iter"
)

// Result is the outcome of a quantization run.
type Result struct {
	Palette   *Palette
	Method    Method
	Requested int
	Achieved  int
	Stats     Stats
}

// Quantize runs the configured quantizer over already aggregated samples and
// applies the optional HSV sort.
func Quantize(samples []Sample, cfg Config) (*Palette, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	q, err := NewQuantizer(cfg.Method)
	if err != nil {
		return nil, err
	}

	palette, err := q.Quantize(samples, cfg.PaletteSize)
	if err != nil {
		return nil, err
	}

	if cfg.Sort {
		SortHSV(palette)
	}
	return palette, nil
}

// Extract validates the configuration, aggregates the pixel streams and quantizes the result.
// The configuration is validated before any stream is consumed.
func Extract(cfg Config, streams ...iter.Seq[Color]) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	agg := NewAggregator(cfg.AlphaThreshold)
	for _, s := range streams {
		agg.Add(s)
	}
	return FromAggregator(agg, cfg)
}

// FromAggregator quantizes whatever the aggregator has accumulated.
func FromAggregator(agg *Aggregator, cfg Config) (*Result, error) {
	palette, err := Quantize(agg.Samples(), cfg)
	if err != nil {
		return nil, err
	}

	return &Result{
		Palette:   palette,
		Method:    cfg.Method,
		Requested: cfg.PaletteSize,
		Achieved:  palette.Achieved(),
		Stats:     agg.Stats(),
	}, nil
}

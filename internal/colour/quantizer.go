package colour

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPaletteSize is returned when the requested palette size is not positive.
	ErrInvalidPaletteSize = errors.New("palette size must be greater than zero")

	// ErrUnknownMethod is returned for quantization method names that are not recognised.
	ErrUnknownMethod = errors.New("unknown quantization method")
)

// Quantizer defines the interface for colour quantization algorithms.
type Quantizer interface {
	// Quantize reduces the samples to a palette of at most size colours.
	// The returned palette records both the requested and the achieved size.
	Quantize(samples []Sample, size int) (*Palette, error)

	// Method identifies the algorithm.
	Method() Method
}

// Method represents the quantization algorithm type.
type Method string

const (
	// MethodMedianCut recursively splits the sample population at weighted medians.
	MethodMedianCut Method = "median-cut"

	// MethodOctree aggregates samples into an RGB octree and folds it down.
	MethodOctree Method = "octree"
)

// String returns the method name.
func (m Method) String() string {
	return string(m)
}

// ValidMethods returns a list of valid method names.
func ValidMethods() []Method {
	return []Method{
		MethodMedianCut,
		MethodOctree,
	}
}

// ParseMethod resolves a method name. Matching is case-insensitive and accepts
// "mediancut" and "median_cut" as spellings of median-cut.
func ParseMethod(name string) (Method, error) {
	normalised := strings.ToLower(strings.TrimSpace(name))
	normalised = strings.NewReplacer("_", "-").Replace(normalised)
	switch normalised {
	case "median-cut", "mediancut":
		return MethodMedianCut, nil
	case "octree":
		return MethodOctree, nil
	default:
		return "", fmt.Errorf("%w: %q (valid methods: %v)", ErrUnknownMethod, name, ValidMethods())
	}
}

// NewQuantizer creates a new Quantizer for the specified method.
func NewQuantizer(m Method) (Quantizer, error) {
	switch m {
	case MethodMedianCut:
		return NewMedianCutQuantizer(), nil
	case MethodOctree:
		return NewOctreeQuantizer(), nil
	default:
		return nil, fmt.Errorf("%w: %q (valid methods: %v)", ErrUnknownMethod, m, ValidMethods())
	}
}

// Config holds the parameters of a quantization run.
type Config struct {
	Method         Method
	PaletteSize    int
	AlphaThreshold uint8
	Sort           bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Method:      MethodMedianCut,
		PaletteSize: 16,
	}
}

// Validate validates the configuration. It is cheap and runs before any pixel is read.
func (c Config) Validate() error {
	if err := validateSize(c.PaletteSize); err != nil {
		return err
	}
	if _, err := NewQuantizer(c.Method); err != nil {
		return err
	}
	return nil
}

func validateSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidPaletteSize, size)
	}
	return nil
}

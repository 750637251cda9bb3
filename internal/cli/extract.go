package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/jmylchreest/palettize/internal/colour"
	"github.com/jmylchreest/palettize/internal/image"
	"github.com/jmylchreest/palettize/internal/util/imagecache"
)

// extractOptions holds the resolved settings of one extract run.
type extractOptions struct {
	method       colour.Method
	size         int
	alpha        uint8
	sort         bool
	rgb          bool
	hex          bool
	uncolored    bool
	format       outputFormat
	output       string
	separate     bool
	skipInvalid  bool
	maxDimension int
	cacheDir     string
	jobs         int
}

// newExtractCmd creates the extract command.
func newExtractCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <palette-size> <image|dir>...",
		Short: "Extract a colour palette from one or more images",
		Long: `Extract a bounded colour palette from one or more images.

Pixels from every input are pooled into a single palette unless --separate
is given. Directories are expanded to the supported images they contain.
The number of colours produced may be lower than requested when the input
has fewer distinct colours.

Supported image formats: JPEG, PNG, GIF, WebP, BMP, TIFF

Examples:
  # 16 colours from a wallpaper using median cut
  palettize extract 16 wallpaper.jpg

  # 8 colours per image using the octree, printed as hex
  palettize extract --separate -m octree --hex 8 a.png b.png

  # Ignore mostly transparent pixels and sort by hue
  palettize extract --alpha-thresh 128 --sort 12 sprite.png

  # JSON for every image in a directory
  palettize extract -f json 6 ~/Pictures/wallpapers`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.extractOptions(args[0])
			if err != nil {
				return err
			}
			return a.runExtract(cmd.Context(), cmd.OutOrStdout(), opts, args[1:])
		},
	}

	addExtractFlags(cmd.Flags())

	return cmd
}

// addExtractFlags registers the extract flags. Their names double as config
// file keys and, upper-cased with a PALETTIZE_ prefix, environment variables.
func addExtractFlags(flags *pflag.FlagSet) {
	flags.SortFlags = false
	flags.StringP("method", "m", string(colour.MethodMedianCut), "quantization method (median-cut, octree)")
	flags.Int("alpha-thresh", 0, "ignore pixels with alpha below this value (0-255)")
	flags.BoolP("sort", "s", false, "sort the palette by hue, saturation and value")
	flags.Bool("rgb", false, "print colours as (r,g,b) (default unless --hex)")
	flags.Bool("hex", false, "print colours as #RRGGBB")
	flags.Bool("uncolored", false, "do not colour the output")
	flags.StringP("format", "f", string(formatText), "output format (text, json, table)")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.Bool("separate", false, "produce one palette per image instead of a combined palette")
	flags.Bool("skip-invalid", false, "warn about images that cannot be decoded instead of failing")
	flags.Int("max-dimension", 0, "downscale images larger than this before sampling (0 disables)")
	flags.String("cache-dir", "", "directory for downloaded images (default: user cache dir)")
	flags.Bool("no-cache", false, "do not cache downloaded images")
	flags.IntP("jobs", "j", runtime.NumCPU(), "number of images decoded concurrently")
}

// extractOptions resolves flags, environment and config file into options.
// Everything is validated before any image is read.
func (a *app) extractOptions(sizeArg string) (extractOptions, error) {
	size, err := strconv.Atoi(sizeArg)
	if err != nil {
		return extractOptions{}, fmt.Errorf("%w: %q is not a number", colour.ErrInvalidPaletteSize, sizeArg)
	}

	method, err := colour.ParseMethod(a.v.GetString("method"))
	if err != nil {
		return extractOptions{}, err
	}

	alpha, err := a.intOption("alpha-thresh")
	if err != nil {
		return extractOptions{}, err
	}
	if alpha < 0 || alpha > 255 {
		return extractOptions{}, fmt.Errorf("alpha threshold must be between 0 and 255, got %d", alpha)
	}

	format, err := parseFormat(a.v.GetString("format"))
	if err != nil {
		return extractOptions{}, err
	}

	maxDimension, err := a.intOption("max-dimension")
	if err != nil {
		return extractOptions{}, err
	}
	jobs, err := a.intOption("jobs")
	if err != nil {
		return extractOptions{}, err
	}

	cacheDir, err := resolveCacheDir(a.v.GetString("cache-dir"), a.v.GetBool("no-cache"))
	if err != nil {
		if a.v.GetString("cache-dir") != "" {
			return extractOptions{}, err
		}
		a.logger.Debug("image cache disabled", "error", err)
		cacheDir = ""
	}

	opts := extractOptions{
		method:       method,
		size:         size,
		alpha:        uint8(alpha),
		sort:         a.v.GetBool("sort"),
		rgb:          a.v.GetBool("rgb"),
		hex:          a.v.GetBool("hex"),
		uncolored:    a.v.GetBool("uncolored"),
		format:       format,
		output:       a.v.GetString("output"),
		separate:     a.v.GetBool("separate"),
		skipInvalid:  a.v.GetBool("skip-invalid"),
		maxDimension: maxDimension,
		cacheDir:     cacheDir,
		jobs:         jobs,
	}
	if opts.jobs < 1 {
		opts.jobs = 1
	}

	if err := opts.config().Validate(); err != nil {
		return extractOptions{}, err
	}
	return opts, nil
}

// intOption reads an integer setting. Unlike viper's GetInt, malformed values
// from the environment or the config file are reported instead of read as 0.
func (a *app) intOption(key string) (int, error) {
	n, err := cast.ToIntE(a.v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

// resolveCacheDir returns where downloaded images are kept, or "" when caching is off.
// An empty dir selects the per-user default cache directory.
func resolveCacheDir(dir string, disabled bool) (string, error) {
	if disabled {
		return "", nil
	}
	if dir == "" {
		return imagecache.DefaultDir()
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("invalid cache directory: %w", err)
	}
	return expanded, nil
}

func (o extractOptions) config() colour.Config {
	return colour.Config{
		Method:         o.method,
		PaletteSize:    o.size,
		AlphaThreshold: o.alpha,
		Sort:           o.sort,
	}
}

// runExtract decodes the inputs concurrently, quantizes and writes the result.
func (a *app) runExtract(ctx context.Context, stdout io.Writer, opts extractOptions, inputs []string) error {
	paths, err := image.ExpandPaths(inputs)
	if err != nil {
		return err
	}

	paths, err = a.validatePaths(paths, opts.skipInvalid)
	if err != nil {
		return err
	}

	reports, err := a.quantize(ctx, opts, paths)
	if err != nil {
		return err
	}

	for _, r := range reports {
		if r.Result.Palette.Short() {
			a.logger.Info("palette smaller than requested",
				"sources", len(r.Sources), "requested", r.Result.Requested, "achieved", r.Result.Achieved)
		}
	}

	ropts := renderOptions{
		format: opts.format,
		rgb:    opts.rgb,
		hex:    opts.hex,
	}

	if opts.output == "" {
		colourise := !opts.uncolored && os.Getenv("NO_COLOR") == "" && isTerminal(stdout)
		ropts.painter = colour.NewPainter(colourise)
		return render(stdout, reports, ropts)
	}

	// Files are never coloured.
	ropts.painter = colour.NewPainter(false)
	var buf bytes.Buffer
	if err := render(&buf, reports, ropts); err != nil {
		return err
	}

	a.logger.Debug("writing output", "path", opts.output)
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil { // #nosec G306 - Palette output is not sensitive
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// validatePaths checks every local input before any image is decoded.
// Invalid inputs fail the run, or are dropped with a warning when skipInvalid is set.
func (a *app) validatePaths(paths []string, skipInvalid bool) ([]string, error) {
	valid := make([]string, 0, len(paths))
	for _, path := range paths {
		if err := image.ValidateImagePath(path); err != nil {
			if !skipInvalid {
				return nil, &image.DecodeError{Path: path, Err: err}
			}
			a.logger.Warn("skipping image", "path", path, "error", err)
			continue
		}
		valid = append(valid, path)
	}
	if len(valid) == 0 {
		return nil, errors.New("no images could be loaded")
	}
	return valid, nil
}

// quantize aggregates the images and returns one report per palette.
func (a *app) quantize(ctx context.Context, opts extractOptions, paths []string) ([]report, error) {
	cfg := opts.config()
	loader := image.NewSmartLoader(image.Options{MaxDimension: opts.maxDimension, CacheDir: opts.cacheDir})

	aggs := make([]*colour.Aggregator, len(paths))
	shared := colour.NewAggregator(cfg.AlphaThreshold)
	for i := range aggs {
		if opts.separate {
			aggs[i] = colour.NewAggregator(cfg.AlphaThreshold)
		} else {
			aggs[i] = shared
		}
	}

	loaded := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			a.logger.Debug("loading image", "path", path)
			img, err := loader.Load(gctx, path)
			if err != nil {
				var decodeErr *image.DecodeError
				if opts.skipInvalid && errors.As(err, &decodeErr) {
					a.logger.Warn("skipping image", "path", path, "error", decodeErr.Err)
					return nil
				}
				return err
			}

			b := img.Bounds()
			a.logger.Debug("image loaded", "path", path, "width", b.Dx(), "height", b.Dy())
			aggs[i].Add(image.Pixels(img))

			loaded[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var reports []report
	if opts.separate {
		for i, path := range paths {
			if !loaded[i] {
				continue
			}
			res, err := colour.FromAggregator(aggs[i], cfg)
			if err != nil {
				return nil, err
			}
			reports = append(reports, report{Sources: []string{path}, Result: res})
		}
	} else {
		var sources []string
		for i, path := range paths {
			if loaded[i] {
				sources = append(sources, path)
			}
		}
		if len(sources) > 0 {
			res, err := colour.FromAggregator(shared, cfg)
			if err != nil {
				return nil, err
			}
			reports = append(reports, report{Sources: sources, Result: res})
		}
	}

	if len(reports) == 0 {
		return nil, errors.New("no images could be loaded")
	}

	for _, r := range reports {
		a.logger.Debug("quantized",
			"method", r.Result.Method, "scanned", r.Result.Stats.Scanned,
			"filtered", r.Result.Stats.Filtered, "distinct", r.Result.Stats.Distinct,
			"achieved", r.Result.Achieved)
	}
	return reports, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

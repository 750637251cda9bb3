// Package image provides utilities for loading images and turning them into pixel streams.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/palettize/internal/colour"
	httputil "github.com/jmylchreest/palettize/internal/util/http"
	"github.com/jmylchreest/palettize/internal/util/imagecache"
)

// DecodeError reports that a single input could not be read or decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path.
	Load(ctx context.Context, path string) (image.Image, error)
}

// Options controls post-decode processing.
type Options struct {
	// MaxDimension downscales images whose width or height exceeds it,
	// preserving the aspect ratio. Zero disables downscaling.
	MaxDimension int

	// CacheDir keeps downloaded images on disk between runs. Empty disables caching.
	CacheDir string
}

// FileLoader loads images from the local filesystem.
// EXIF orientation is applied so that pixels match what a viewer shows.
type FileLoader struct {
	opts Options
}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader(opts Options) *FileLoader {
	return &FileLoader{opts: opts}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP, BMP, TIFF.
func (l *FileLoader) Load(_ context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, &DecodeError{Path: path, Err: errors.New("image path cannot be empty")}
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("image file not found: %w", err)}
		}
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("failed to stat image file: %w", err)}
	}
	if info.IsDir() {
		return nil, &DecodeError{Path: path, Err: errors.New("path is a directory, not a file")}
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true)) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	return l.opts.apply(img), nil
}

// apply downscales img when it exceeds MaxDimension.
func (o Options) apply(img image.Image) image.Image {
	if o.MaxDimension <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= o.MaxDimension && b.Dy() <= o.MaxDimension {
		return img
	}
	return imaging.Fit(img, o.MaxDimension, o.MaxDimension, imaging.Lanczos)
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	fileLoader *FileLoader
	opts       Options
	cache      *imagecache.Cache
	fetch      func(ctx context.Context, url string, opts httputil.FetchOptions) ([]byte, error)
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader(opts Options) *SmartLoader {
	l := &SmartLoader{
		fileLoader: NewFileLoader(opts),
		opts:       opts,
		fetch:      httputil.Fetch,
	}
	if opts.CacheDir != "" {
		l.cache = imagecache.New(opts.CacheDir)
	}
	return l
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(ctx context.Context, path string) (image.Image, error) {
	if isURL(path) {
		return l.loadFromURL(ctx, path)
	}
	return l.fileLoader.Load(ctx, path)
}

// loadFromURL fetches and decodes an image from an HTTP(S) URL.
func (l *SmartLoader) loadFromURL(ctx context.Context, url string) (image.Image, error) {
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		return l.fetch(ctx, url, httputil.FetchOptions{})
	}

	var (
		data []byte
		err  error
	)
	if l.cache != nil {
		data, err = l.cache.Get(ctx, url, fetch)
	} else {
		data, err = fetch(ctx, url)
	}
	if err != nil {
		return nil, &DecodeError{Path: url, Err: fmt.Errorf("failed to fetch image: %w", err)}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Path: url, Err: err}
	}

	return l.opts.apply(img), nil
}

// Pixels returns the pixels of img in row-major order as straight-alpha colours.
func Pixels(img image.Image) iter.Seq[colour.Color] {
	return func(yield func(colour.Color) bool) {
		b := img.Bounds()

		if n, ok := img.(*image.NRGBA); ok {
			for y := b.Min.Y; y < b.Max.Y; y++ {
				row := n.Pix[n.PixOffset(b.Min.X, y):n.PixOffset(b.Max.X, y)]
				for i := 0; i+3 < len(row); i += 4 {
					if !yield(colour.Color{R: row[i], G: row[i+1], B: row[i+2], A: row[i+3]}) {
						return
					}
				}
			}
			return
		}

		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				if !yield(colour.Color{R: c.R, G: c.G, B: c.B, A: c.A}) {
					return
				}
			}
		}
	}
}

// ValidateImagePath checks if the given path is valid and points to a supported image file or directory.
// For local files, it verifies the file exists and its header can be decoded.
// For directories, it verifies the directory exists (actual scanning happens later).
// For HTTP(S) URLs, nothing is fetched here.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	if isURL(path) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file or directory not found: %s", path)
		}
		return fmt.Errorf("failed to access image path: %w", err)
	}

	if info.IsDir() {
		return nil
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("unsupported or invalid image format: %w", err)
	}

	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}
}

// isImageFile checks if a file has a supported image extension.
func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// ScanDirectoryForImages scans a directory and returns all valid image files in name order.
// It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// For symlinks, stat the target to determine if it's a file.
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			continue
		}

		if isImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no supported image files found in directory: %s", dirPath)
	}

	return imageFiles, nil
}

// ExpandPaths replaces every directory argument by the images it contains.
// Files and URLs are passed through in their original order.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if isURL(p) {
			out = append(out, p)
			continue
		}

		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			// Missing files are reported by ValidateImagePath.
			out = append(out, p)
			continue
		}

		files, err := ScanDirectoryForImages(p)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// Package imagecache keeps downloaded images on disk so repeated runs over the
// same URL do not fetch it again.
package imagecache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// Fetcher downloads the content at url.
type Fetcher func(ctx context.Context, url string) ([]byte, error)

// Cache stores images in a single directory, one file per URL.
type Cache struct {
	dir string
}

// New returns a Cache rooted at dir. The directory is created on first write.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// DefaultDir returns the default cache directory path.
func DefaultDir() (string, error) {
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "palettize", "images"), nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to determine cache directory: %w", err)
	}
	return filepath.Join(home, ".cache", "palettize", "images"), nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns where the image for url is stored.
func (c *Cache) Path(url string) string {
	return filepath.Join(c.dir, filename(url))
}

// filename derives a deterministic file name from the URL hash and its extension.
func filename(url string) string {
	hash := sha256.Sum256([]byte(url))

	ext := filepath.Ext(url)
	if idx := strings.IndexAny(ext, "?#"); idx != -1 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 {
		ext = ".img"
	}

	return fmt.Sprintf("%x%s", hash[:16], strings.ToLower(ext))
}

// Get returns the cached bytes for url, fetching and storing them on a miss.
func (c *Cache) Get(ctx context.Context, url string, fetch Fetcher) ([]byte, error) {
	path := c.Path(url)

	data, err := os.ReadFile(path) // #nosec G304 - Path is derived from a hash inside the cache directory
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read cached image: %w", err)
	}

	data, err = fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := c.store(path, data); err != nil {
		return nil, err
	}
	return data, nil
}

// store writes data next to path and renames it into place so concurrent
// readers never observe a partial file.
func (c *Cache) store(path string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cached image: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	return nil
}

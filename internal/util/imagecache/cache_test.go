package imagecache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantExt string
	}{
		{name: "png", url: "https://example.com/a.png", wantExt: ".png"},
		{name: "upper case", url: "https://example.com/a.JPG", wantExt: ".jpg"},
		{name: "query string", url: "https://example.com/a.webp?size=large", wantExt: ".webp"},
		{name: "no extension", url: "https://example.com/image", wantExt: ".img"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filename(tt.url)
			if !strings.HasSuffix(got, tt.wantExt) {
				t.Errorf("filename(%q) = %q, want suffix %q", tt.url, got, tt.wantExt)
			}
			if got != filename(tt.url) {
				t.Error("filename is not deterministic")
			}
		})
	}

	if filename("https://example.com/a.png") == filename("https://example.com/b.png") {
		t.Error("different URLs share a cache file")
	}
}

func TestCacheGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	cache := New(dir)
	url := "https://example.com/photo.png"

	calls := 0
	fetch := func(_ context.Context, u string) ([]byte, error) {
		calls++
		if u != url {
			t.Errorf("fetch(%q), want %q", u, url)
		}
		return []byte("image-bytes"), nil
	}

	for i := 0; i < 3; i++ {
		data, err := cache.Get(context.Background(), url, fetch)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(data) != "image-bytes" {
			t.Errorf("Get() = %q", data)
		}
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}

	if _, err := os.Stat(cache.Path(url)); err != nil {
		t.Errorf("cached file missing: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("cache holds %d entries, want 1 (temporary files must be cleaned up)", len(entries))
	}
}

func TestCacheGetFetchError(t *testing.T) {
	cache := New(t.TempDir())
	boom := errors.New("boom")

	_, err := cache.Get(context.Background(), "https://example.com/x.png", func(context.Context, string) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Get() error = %v, want %v", err, boom)
	}
	if _, err := os.Stat(cache.Path("https://example.com/x.png")); !os.IsNotExist(err) {
		t.Error("failed fetch must not leave a cache entry")
	}
}

func TestDefaultDir(t *testing.T) {
	dir, err := DefaultDir()
	if err != nil {
		t.Skipf("no cache directory available: %v", err)
	}
	if !strings.Contains(dir, "palettize") {
		t.Errorf("DefaultDir() = %q", dir)
	}
}

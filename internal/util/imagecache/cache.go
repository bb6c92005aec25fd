// Package imagecache stores page screenshots captured during an audit so
// they can be re-sampled later with "sitehue sample".
package imagecache

import (
	"crypto/sha256"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultCacheDir returns the default snapshot directory.
func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "sitehue", "snapshots"), nil
	}
	return filepath.Join(cacheDir, "sitehue", "snapshots"), nil
}

// Filename returns a stable file name for a page's snapshot: the host
// followed by a hash of the full URL.
func Filename(pageURL string) string {
	hash := sha256.Sum256([]byte(pageURL))
	host := "page"
	if u, err := url.Parse(pageURL); err == nil && u.Hostname() != "" {
		host = strings.ReplaceAll(u.Hostname(), ":", "_")
	}
	return fmt.Sprintf("%s-%x.png", host, hash[:8])
}

// Save writes img as PNG into dir (DefaultCacheDir when empty), replacing
// any earlier snapshot of the same page. It returns the file path.
func Save(dir, pageURL string, img image.Image) (path string, err error) {
	if dir == "" {
		if dir, err = DefaultCacheDir(); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	path = filepath.Join(dir, Filename(pageURL))
	f, err := os.Create(path) // #nosec G304 - Path built from the cache directory
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close snapshot file: %w", cerr)
		}
	}()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return path, nil
}

// Package image loads screenshots and other rasters from files or URLs so
// they can be sampled without a browser.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/webp" // Register WebP format

	httputil "github.com/jmylchreest/sitehue/internal/util/http"
)

// Loader loads an image from a location.
type Loader interface {
	Load(ctx context.Context, location string) (image.Image, error)
}

// SupportedImageExtensions returns the extensions Load accepts for files.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
}

// IsURL reports whether location is an http(s) URL.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// Load decodes the image file at path.
func (FileLoader) Load(_ context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" && !slices.Contains(SupportedImageExtensions(), ext) {
		return nil, fmt.Errorf("unsupported image extension %s (supported: %s)",
			ext, strings.Join(SupportedImageExtensions(), ", "))
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	return img, nil
}

// SmartLoader loads from files or http(s) URLs.
type SmartLoader struct {
	files FileLoader
	fetch httputil.FetchOptions
}

// NewSmartLoader creates a SmartLoader.
func NewSmartLoader(fetch httputil.FetchOptions) *SmartLoader {
	return &SmartLoader{fetch: fetch}
}

// Load loads location as a URL or a file path.
func (l *SmartLoader) Load(ctx context.Context, location string) (image.Image, error) {
	if !IsURL(location) {
		return l.files.Load(ctx, location)
	}

	data, err := httputil.Fetch(ctx, location, l.fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	return img, nil
}

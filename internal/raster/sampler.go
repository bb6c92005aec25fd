// Package raster samples the rendered colour behind an element from a
// full-page screenshot.
package raster

import (
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/dom"
)

// DefaultGrid is the side of the sampling grid, in CSS pixels.
const DefaultGrid = 5

var (
	// ErrNoSnapshot is returned when no raster is available.
	ErrNoSnapshot = errors.New("no raster snapshot")
	// ErrOccluded is returned when another element covers the sample point.
	ErrOccluded = errors.New("sample point is occluded")
	// ErrOutOfBounds is returned when the grid falls outside the image.
	ErrOutOfBounds = errors.New("sample grid outside raster bounds")
)

// Snapshot is a full-page raster of a document.
type Snapshot struct {
	Image image.Image
	// DevicePixelRatio maps CSS pixels to image pixels. Values <= 0 mean 1.
	DevicePixelRatio float64
}

func (s *Snapshot) scale() float64 {
	if s.DevicePixelRatio <= 0 {
		return 1
	}
	return s.DevicePixelRatio
}

// Sampler reads the median colour of a small grid at an element's centre.
type Sampler struct {
	grid int
}

// NewSampler creates a Sampler with a grid of n×n points. n < 1 uses DefaultGrid.
func NewSampler(n int) *Sampler {
	if n < 1 {
		n = DefaultGrid
	}
	return &Sampler{grid: n}
}

// Grid returns the grid size.
func (s *Sampler) Grid() int {
	return s.grid
}

// Sample returns the median colour under el's visual centre. It refuses to
// sample when a different element that is not a descendant of el sits on top
// of the centre: the pixels there belong to the overlay, not to el.
func (s *Sampler) Sample(el dom.Element, snap *Snapshot) (colour.RGBA, error) {
	if snap == nil || snap.Image == nil {
		return colour.RGBA{}, ErrNoSnapshot
	}

	rect, err := el.Rect()
	if err != nil {
		return colour.RGBA{}, fmt.Errorf("read element box: %w", err)
	}
	if rect.Empty() {
		return colour.RGBA{}, fmt.Errorf("%w: element has no area", ErrOutOfBounds)
	}
	cx, cy := rect.Centre()

	doc := el.Document()
	if doc == nil {
		return colour.RGBA{}, fmt.Errorf("%w: element is detached", ErrOccluded)
	}
	top, err := doc.ElementAt(cx, cy)
	if err != nil {
		return colour.RGBA{}, fmt.Errorf("hit test: %w", err)
	}
	if top == nil || !el.Contains(top) {
		return colour.RGBA{}, ErrOccluded
	}

	return s.SampleAt(snap, cx, cy)
}

// SampleAt returns the per-channel median of the grid centred on the CSS
// pixel coordinate (cx, cy). Grid points are one CSS pixel apart and scaled
// by the device pixel ratio; points outside the image are dropped. The
// median is used rather than the mean so border and edge pixels inside the
// window do not shift the result.
func (s *Sampler) SampleAt(snap *Snapshot, cx, cy float64) (colour.RGBA, error) {
	if snap == nil || snap.Image == nil {
		return colour.RGBA{}, ErrNoSnapshot
	}

	dpr := snap.scale()
	bounds := snap.Image.Bounds()
	half := s.grid / 2

	n := s.grid * s.grid
	rs := make([]uint8, 0, n)
	gs := make([]uint8, 0, n)
	bs := make([]uint8, 0, n)

	for dy := -half; dy < s.grid-half; dy++ {
		for dx := -half; dx < s.grid-half; dx++ {
			px := bounds.Min.X + int(math.Floor((cx+float64(dx))*dpr))
			py := bounds.Min.Y + int(math.Floor((cy+float64(dy))*dpr))
			if !(image.Point{X: px, Y: py}).In(bounds) {
				continue
			}
			c := colour.FromColor(snap.Image.At(px, py))
			rs = append(rs, c.R)
			gs = append(gs, c.G)
			bs = append(bs, c.B)
		}
	}

	if len(rs) == 0 {
		return colour.RGBA{}, ErrOutOfBounds
	}

	return colour.Opaque(median(rs), median(gs), median(bs)), nil
}

// median returns the middle value; for even counts the upper middle.
func median(v []uint8) uint8 {
	slices.Sort(v)
	return v[len(v)/2]
}

// Package colour provides the colour primitives used by the audit engine:
// parsing of computed CSS colour values, WCAG luminance and contrast, and the
// Redmean perceptual distance.
package colour

import (
	"encoding/json"
	"fmt"
	"image/color"
)

// RGBA represents an 8-bit, non-premultiplied colour.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Opaque returns a fully opaque colour from its channels.
func Opaque(r, g, b uint8) RGBA {
	return RGBA{R: r, G: g, B: b, A: 255}
}

// String returns the colour in CSS functional notation, e.g. "rgb(1, 2, 3)"
// or "rgba(1, 2, 3, 0.50)".
func (c RGBA) String() string {
	if c.A == 255 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", c.R, c.G, c.B, c.AlphaFloat())
}

// Hex returns the colour as a lowercase hex string without alpha (e.g. "#1a2b3c").
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Key returns the normalised identity of the colour. Opaque colours use the
// six digit form, translucent colours append the alpha byte.
func (c RGBA) Key() string {
	if c.A == 255 {
		return c.Hex()
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// AlphaFloat returns the alpha channel in the range [0, 1].
func (c RGBA) AlphaFloat() float64 {
	return float64(c.A) / 255.0
}

// IsTransparent reports whether the colour has zero alpha.
func (c RGBA) IsTransparent() bool {
	return c.A == 0
}

// IsPureBlack reports whether the colour is opaque #000000.
func (c RGBA) IsPureBlack() bool {
	return c == RGBA{A: 255}
}

// IsPureWhite reports whether the colour is opaque #ffffff.
func (c RGBA) IsPureWhite() bool {
	return c == RGBA{R: 255, G: 255, B: 255, A: 255}
}

// Color converts to the standard library color type.
func (c RGBA) Color() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// FromColor converts any color.Color to a non-premultiplied RGBA.
func FromColor(c color.Color) RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{R: n.R, G: n.G, B: n.B, A: n.A}
}

// MarshalJSON encodes the colour as its normalised key.
func (c RGBA) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Key())
}

// UnmarshalJSON accepts any colour notation understood by Parse.
func (c *RGBA) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("colour must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

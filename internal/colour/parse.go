package colour

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColour is returned when a value cannot be read as a colour.
var ErrInvalidColour = errors.New("invalid colour")

// namedColours covers the CSS keywords browsers commonly report or authors
// commonly write. Computed styles are always rgb()/rgba(), so this only
// matters for stylesheet declarations.
var namedColours = map[string]RGBA{
	"black":   Opaque(0, 0, 0),
	"white":   Opaque(255, 255, 255),
	"red":     Opaque(255, 0, 0),
	"green":   Opaque(0, 128, 0),
	"lime":    Opaque(0, 255, 0),
	"blue":    Opaque(0, 0, 255),
	"yellow":  Opaque(255, 255, 0),
	"cyan":    Opaque(0, 255, 255),
	"aqua":    Opaque(0, 255, 255),
	"magenta": Opaque(255, 0, 255),
	"fuchsia": Opaque(255, 0, 255),
	"silver":  Opaque(192, 192, 192),
	"gray":    Opaque(128, 128, 128),
	"grey":    Opaque(128, 128, 128),
	"maroon":  Opaque(128, 0, 0),
	"olive":   Opaque(128, 128, 0),
	"purple":  Opaque(128, 0, 128),
	"teal":    Opaque(0, 128, 128),
	"navy":    Opaque(0, 0, 128),
	"orange":  Opaque(255, 165, 0),
	"pink":    Opaque(255, 192, 203),
}

// nonColourKeywords never resolve to a painted colour. currentcolor is not
// one of them: it paints the element's text colour.
var nonColourKeywords = map[string]bool{
	"transparent": true,
	"inherit":     true,
	"initial":     true,
	"unset":       true,
	"none":        true,
}

// IsTransparentValue reports whether a raw CSS value paints nothing: the
// transparent/inherit/initial/unset/none keywords, or any colour with zero
// alpha.
func IsTransparentValue(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	if nonColourKeywords[v] {
		return true
	}
	c, err := Parse(v)
	if err != nil {
		return false
	}
	return c.IsTransparent()
}

// Parse reads a CSS colour value: hex (#rgb, #rgba, #rrggbb, #rrggbbaa),
// rgb()/rgba() in comma or space syntax, a basic named colour, or
// "transparent". Case is ignored.
func Parse(raw string) (RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == "transparent":
		return RGBA{}, nil
	case strings.HasPrefix(v, "#"):
		return parseHex(v)
	case strings.HasPrefix(v, "rgb"):
		return parseFunctional(v)
	}
	if c, ok := namedColours[v]; ok {
		return c, nil
	}
	return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColour, raw)
}

// MustParse is Parse for constants in tests and tables; it panics on error.
func MustParse(raw string) RGBA {
	c, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(v string) (RGBA, error) {
	digits := v[1:]
	switch len(digits) {
	case 3, 6:
		c, err := colorful.Hex(v)
		if err != nil {
			return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColour, v)
		}
		r, g, b := c.RGB255()
		return Opaque(r, g, b), nil
	case 4, 8:
		// colorful.Hex has no alpha support.
		if len(digits) == 4 {
			digits = string([]byte{
				digits[0], digits[0], digits[1], digits[1],
				digits[2], digits[2], digits[3], digits[3],
			})
		}
		n, err := strconv.ParseUint(digits, 16, 32)
		if err != nil {
			return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColour, v)
		}
		return RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
	default:
		return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColour, v)
	}
}

func parseFunctional(v string) (RGBA, error) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColour, v)
	}
	name := v[:open]
	if name != "rgb" && name != "rgba" {
		return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColour, v)
	}
	body := v[open+1 : len(v)-1]

	alphaPart := ""
	if slash := strings.IndexByte(body, '/'); slash >= 0 {
		alphaPart = strings.TrimSpace(body[slash+1:])
		body = body[:slash]
	}

	var parts []string
	if strings.Contains(body, ",") {
		for _, p := range strings.Split(body, ",") {
			parts = append(parts, strings.TrimSpace(p))
		}
	} else {
		parts = strings.Fields(body)
	}
	if len(parts) == 4 && alphaPart == "" {
		alphaPart, parts = parts[3], parts[:3]
	}
	if len(parts) != 3 {
		return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColour, v)
	}

	var channels [3]float64
	for i, p := range parts {
		f, err := parseChannel(p)
		if err != nil {
			return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColour, v)
		}
		channels[i] = f
	}

	alpha := 1.0
	if alphaPart != "" {
		a, err := parseAlpha(alphaPart)
		if err != nil {
			return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColour, v)
		}
		alpha = a
	}

	// Clamped keeps out-of-gamut author values (e.g. rgb(300, 0, 0)) in range.
	c := colorful.Color{R: channels[0], G: channels[1], B: channels[2]}.Clamped()
	r, g, b := c.RGB255()
	return RGBA{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))}, nil
}

// parseChannel returns a channel in [0, 1] from "128", "50%" or "127.5".
func parseChannel(p string) (float64, error) {
	if strings.HasSuffix(p, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return 0, err
		}
		return f / 100, nil
	}
	f, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, err
	}
	return f / 255, nil
}

func parseAlpha(p string) (float64, error) {
	var f float64
	var err error
	if strings.HasSuffix(p, "%") {
		f, err = strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		f /= 100
	} else {
		f, err = strconv.ParseFloat(p, 64)
	}
	if err != nil {
		return 0, err
	}
	return math.Max(0, math.Min(1, f)), nil
}

var (
	colourTokenRegex = regexp.MustCompile(`(?i)#[0-9a-f]{3,8}\b|rgba?\([^)]*\)|\b[a-z]+\b`)
	urlRegex         = regexp.MustCompile(`(?i)url\([^)]*\)`)
)

// ExtractFirst returns the first colour found in a CSS value such as a
// background shorthand or a gradient ("linear-gradient(90deg, #fff 0%, ...)").
// Transparent stops are skipped. The boolean is false when no colour is found.
func ExtractFirst(value string) (RGBA, bool) {
	value = urlRegex.ReplaceAllString(value, " ")
	for _, tok := range colourTokenRegex.FindAllString(value, -1) {
		c, err := Parse(tok)
		if err != nil || c.IsTransparent() {
			continue
		}
		return c, true
	}
	return RGBA{}, false
}

var varRefRegex = regexp.MustCompile(`^var\(\s*(--[a-zA-Z0-9_-]+)\s*(?:,\s*(.*))?\)$`)

// ParseVar splits a "var(--name, fallback)" reference. ok is false when the
// value is not a custom property reference.
func ParseVar(value string) (name, fallback string, ok bool) {
	m := varRefRegex.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

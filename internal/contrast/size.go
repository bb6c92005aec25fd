package contrast

import (
	"strconv"
	"strings"
)

const (
	// LargeTextPx is the size at which any text counts as large (18pt).
	LargeTextPx = 24.0
	// LargeBoldTextPx is the size at which bold text counts as large (14pt).
	LargeBoldTextPx = 18.66
	// BoldWeight is the minimum weight counted as bold.
	BoldWeight = 700
)

// TextSize is the rendered size of the text, or unknown.
type TextSize struct {
	Known  bool
	Px     float64
	Weight int
}

// UnknownSize is a TextSize with no information.
func UnknownSize() TextSize {
	return TextSize{}
}

// SizeOf returns a known text size.
func SizeOf(px float64, weight int) TextSize {
	return TextSize{Known: true, Px: px, Weight: weight}
}

// Large reports whether the text is large in the WCAG sense. Unknown sizes
// are never large.
func (s TextSize) Large() bool {
	if !s.Known {
		return false
	}
	return s.Px >= LargeTextPx || (s.Px >= LargeBoldTextPx && s.Weight >= BoldWeight)
}

// TextSizeFromCSS reads computed font-size and font-weight values. Only
// pixel sizes are understood; anything else is unknown. A missing or
// unreadable weight counts as normal.
func TextSizeFromCSS(fontSize, fontWeight string) TextSize {
	v := strings.ToLower(strings.TrimSpace(fontSize))
	if !strings.HasSuffix(v, "px") {
		return UnknownSize()
	}
	px, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil || px <= 0 {
		return UnknownSize()
	}
	return SizeOf(px, parseWeight(fontWeight))
}

func parseWeight(v string) int {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "bold", "bolder":
		return 700
	case "", "normal", "lighter":
		return 400
	}
	w, err := strconv.Atoi(v)
	if err != nil {
		return 400
	}
	return w
}

// Package contrast classifies foreground/background pairs against the WCAG
// contrast tiers, keeping an unknown background and an unknown text size as
// separate outcomes.
package contrast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jmylchreest/sitehue/internal/colour"
)

// ErrIdenticalColours is returned when text and background are the same
// colour. Such text is invisible rather than low-contrast.
var ErrIdenticalColours = errors.New("foreground and background are identical")

// Tier is one WCAG success level and text size category.
type Tier string

const (
	AANormal  Tier = "AA-normal"
	AAANormal Tier = "AAA-normal"
	AALarge   Tier = "AA-large"
	AAALarge  Tier = "AAA-large"
)

// Tiers returns every tier in report order.
func Tiers() []Tier {
	return []Tier{AANormal, AAANormal, AALarge, AAALarge}
}

// Threshold returns the minimum ratio for the tier.
func (t Tier) Threshold() float64 {
	switch t {
	case AANormal, AAALarge:
		return 4.5
	case AAANormal:
		return 7.0
	case AALarge:
		return 3.0
	}
	return math.Inf(1)
}

// Large reports whether the tier applies to large text.
func (t Tier) Large() bool {
	return t == AALarge || t == AAALarge
}

// Verdict is the outcome for one tier.
type Verdict string

const (
	Pass Verdict = "pass"
	Fail Verdict = "fail"
	// FailRegardlessOfSize: the ratio misses a large-text threshold, so the
	// text fails whatever its size.
	FailRegardlessOfSize Verdict = "fail-regardless-of-size"
	// VerifyManually: the ratio meets the large-text threshold but the text
	// size is unknown, so whether the tier applies needs a human.
	VerifyManually  Verdict = "verify-manually"
	CannotDetermine Verdict = "cannot-determine"
)

// Failed reports whether the verdict is a failure.
func (v Verdict) Failed() bool {
	return v == Fail || v == FailRegardlessOfSize
}

// Finding is the contrast result for one element.
type Finding struct {
	Foreground colour.RGBA `json:"foreground"`
	// Background is nil when it could not be determined.
	Background *colour.RGBA `json:"background"`
	// Ratio is nil when no background is known.
	Ratio           *float64         `json:"ratio"`
	TextSizeKnown   bool             `json:"text_size_known"`
	LargeText       bool             `json:"large_text"`
	CannotDetermine bool             `json:"cannot_determine"`
	Verdicts        map[Tier]Verdict `json:"verdicts"`
	Explanation     string           `json:"explanation,omitempty"`
}

// Applicable returns the tiers that bind this finding: the large or normal
// pair when the text size is known, all four otherwise, none when the
// background is unknown.
func (f Finding) Applicable() []Tier {
	switch {
	case f.CannotDetermine:
		return nil
	case !f.TextSizeKnown:
		return Tiers()
	case f.LargeText:
		return []Tier{AALarge, AAALarge}
	default:
		return []Tier{AANormal, AAANormal}
	}
}

// FailsAA reports whether an applicable AA tier failed.
func (f Finding) FailsAA() bool {
	for _, t := range f.Applicable() {
		if (t == AANormal || t == AALarge) && f.Verdicts[t].Failed() {
			return true
		}
	}
	return false
}

// Evaluate classifies fg on bg. A nil bg yields a cannot-determine finding
// with no ratio; no colour is assumed in its place. A translucent bg is
// flattened onto white, the default page canvas, and a translucent fg is
// composited over the result. Identical colours return ErrIdenticalColours.
func Evaluate(fg colour.RGBA, bg *colour.RGBA, size TextSize) (Finding, error) {
	f := Finding{
		Foreground:    fg,
		TextSizeKnown: size.Known,
		LargeText:     size.Large(),
		Verdicts:      make(map[Tier]Verdict, 4),
	}

	if bg == nil {
		f.CannotDetermine = true
		for _, t := range Tiers() {
			f.Verdicts[t] = CannotDetermine
		}
		f.Explanation = "background could not be determined"
		return f, nil
	}

	back := *bg
	translucent := back.A < 255
	if translucent {
		back = colour.Composite(back, colour.Opaque(255, 255, 255))
	}
	f.Background = &back
	painted := colour.Composite(fg, back)
	if painted.Hex() == back.Hex() {
		return Finding{}, fmt.Errorf("%s on %s: %w", fg.Key(), back.Key(), ErrIdenticalColours)
	}

	ratio := colour.ContrastRatio(painted, back)
	f.Ratio = &ratio
	f.Verdicts = classify(ratio, size)

	var notes []string
	if translucent {
		notes = append(notes, fmt.Sprintf("background %s is translucent; composited over white", bg.Key()))
	}
	if !size.Known {
		notes = append(notes, "text size unknown; large-text tiers depend on size")
	}
	f.Explanation = strings.Join(notes, "; ")
	return f, nil
}

// classify maps a ratio to per-tier verdicts.
func classify(ratio float64, size TextSize) map[Tier]Verdict {
	v := make(map[Tier]Verdict, 4)
	for _, t := range Tiers() {
		pass := ratio >= t.Threshold()
		switch {
		case pass && t.Large() && !size.Known:
			v[t] = VerifyManually
		case pass:
			v[t] = Pass
		case t.Large() && !size.Known:
			v[t] = FailRegardlessOfSize
		default:
			v[t] = Fail
		}
	}
	return v
}

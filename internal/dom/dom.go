// Package dom defines the element descriptor the audit engine reads a
// rendered page through. Implementations wrap a live browser (see
// internal/browser) or an in-memory tree in tests (see dom/domtest).
//
// Every accessor that can fail on a real page returns an error instead of
// panicking: pseudo-element reads, cross-origin stylesheets and hit testing
// are all allowed to fail, and callers treat a failure as "nothing found".
package dom

import "strings"

// Pseudo selects a pseudo-element for computed style reads.
type Pseudo string

const (
	// PseudoNone reads the element itself.
	PseudoNone Pseudo = ""
	// PseudoBefore reads the ::before pseudo-element.
	PseudoBefore Pseudo = "::before"
	// PseudoAfter reads the ::after pseudo-element.
	PseudoAfter Pseudo = "::after"
)

// Rect is an element box in CSS pixels, in document (not viewport)
// coordinates, so it lines up with a full-page raster.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Centre returns the visual centre of the box.
func (r Rect) Centre() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Empty reports whether the box has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Element is a rendered element.
type Element interface {
	// TagName returns the lowercase tag name.
	TagName() string
	Classes() []string
	Attribute(name string) (string, bool)
	// ComputedStyle returns the computed value of property for the element
	// or one of its pseudo-elements. Custom properties ("--x") are allowed.
	ComputedStyle(pseudo Pseudo, property string) (string, error)
	Rect() (Rect, error)
	// Parent returns the parent element; false at the document root.
	Parent() (Element, bool)
	// Contains reports whether other is this element or one of its descendants.
	Contains(other Element) bool
	// Selector returns a human-readable CSS path for reports.
	Selector() string
	Document() Document
}

// Document is the page an element lives in.
type Document interface {
	StyleSheets() ([]StyleSheet, error)
	// ElementAt returns the topmost element at a document coordinate.
	// A nil element means nothing hit-testable is there.
	ElementAt(x, y float64) (Element, error)
}

// StyleSheet is one stylesheet of a document.
type StyleSheet interface {
	Href() string
	// Rules returns the style rules; cross-origin sheets return an error.
	Rules() ([]Rule, error)
}

// Rule is a single style rule.
type Rule struct {
	Selector     string            `json:"selector"`
	Declarations map[string]string `json:"declarations"`
}

// HasClassToken reports whether the rule's selector text references class
// as a whole ".class" token.
func (r Rule) HasClassToken(class string) bool {
	needle := "." + class
	sel := r.Selector
	for {
		i := strings.Index(sel, needle)
		if i < 0 {
			return false
		}
		end := i + len(needle)
		if end == len(sel) || !isIdentChar(sel[end]) {
			return true
		}
		sel = sel[end:]
	}
}

func isIdentChar(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Package background resolves the colour a reader actually sees behind an
// element, using a per-platform ordered chain of detection methods.
package background

import (
	"fmt"
	"strings"
)

// Platform identifies the site builder a page was made with.
type Platform string

const (
	PlatformWordPress   Platform = "wordpress"
	PlatformSquarespace Platform = "squarespace"
	PlatformWix         Platform = "wix"
	PlatformShopify     Platform = "shopify"
	PlatformWebflow     Platform = "webflow"
	PlatformGeneric     Platform = "generic"
)

// ValidPlatforms returns every platform tag.
func ValidPlatforms() []Platform {
	return []Platform{
		PlatformWordPress,
		PlatformSquarespace,
		PlatformWix,
		PlatformShopify,
		PlatformWebflow,
		PlatformGeneric,
	}
}

// ParsePlatform reads a platform tag, case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range ValidPlatforms() {
		if p == valid {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform: %s (valid platforms: %v)", s, ValidPlatforms())
}

// Method names one detection method. The string is the report's method tag.
type Method string

const (
	MethodComputed      Method = "computed-style"
	MethodCSSRule       Method = "css-rule"
	MethodBefore        Method = "pseudo-before"
	MethodAfter         Method = "pseudo-after"
	MethodDOMWalk       Method = "dom-walk"
	MethodRaster        Method = "raster"
	MethodIndeterminate Method = "indeterminate"
)

// ParseMethod reads a method tag.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MethodComputed, MethodCSSRule, MethodBefore, MethodAfter, MethodDOMWalk, MethodRaster:
		return m, nil
	}
	return "", fmt.Errorf("unknown detection method: %s", s)
}

// Step is one entry of a chain.
type Step struct {
	Method Method `yaml:"method"`
	// ButtonOnly limits the step to button-like elements.
	ButtonOnly bool `yaml:"button_only"`
	// Validate rejects pure black and pure white hits, which on these
	// platforms are decorative overlays rather than the readable surface.
	Validate bool `yaml:"validate"`
	// CrossCheck compares a raster hit against the page-canvas colour seen
	// by the DOM walk and keeps the DOM colour when they agree.
	CrossCheck bool `yaml:"cross_check"`
}

// Chain is an ordered list of steps. The first step producing a colour wins.
type Chain []Step

// String lists the chain's method tags.
func (c Chain) String() string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = string(s.Method)
	}
	return strings.Join(names, " → ")
}

// Chains holds the chain for text-like tags and for everything else.
type Chains struct {
	Text  Chain `yaml:"text"`
	Other Chain `yaml:"other"`
}

// For picks the chain for a tag.
func (c Chains) For(tag string) Chain {
	if IsTextLike(tag) {
		return c.Text
	}
	return c.Other
}

var genericChain = Chain{
	{Method: MethodComputed},
	{Method: MethodCSSRule},
	{Method: MethodBefore},
	{Method: MethodAfter},
	{Method: MethodDOMWalk},
	{Method: MethodRaster},
}

// DefaultChains returns the built-in chain table.
//
// WordPress text skips pseudo-elements entirely: themes paint ::before and
// ::after overlays (usually pure black or white) over sections, and on a
// paragraph those get mistaken for the readable background.
func DefaultChains() map[Platform]Chains {
	generic := Chains{Text: genericChain, Other: genericChain}
	return map[Platform]Chains{
		PlatformWordPress: {
			Text: Chain{
				{Method: MethodCSSRule},
				{Method: MethodDOMWalk},
				{Method: MethodComputed},
				{Method: MethodRaster, ButtonOnly: true},
			},
			Other: Chain{
				{Method: MethodBefore, Validate: true},
				{Method: MethodAfter, Validate: true},
				{Method: MethodCSSRule},
				{Method: MethodComputed},
				{Method: MethodDOMWalk},
				{Method: MethodRaster},
			},
		},
		PlatformSquarespace: {
			Text:  squarespaceChain(),
			Other: squarespaceChain(),
		},
		PlatformWix:     generic,
		PlatformShopify: generic,
		PlatformWebflow: generic,
		PlatformGeneric: generic,
	}
}

func squarespaceChain() Chain {
	return Chain{
		{Method: MethodComputed},
		{Method: MethodDOMWalk},
		{Method: MethodBefore},
		{Method: MethodAfter},
		{Method: MethodRaster, ButtonOnly: true, CrossCheck: true},
	}
}

var textLikeTags = map[string]bool{
	"p": true, "span": true, "a": true,
	"em": true, "strong": true, "i": true, "b": true,
	"small": true, "mark": true, "u": true, "label": true,
}

// IsTextLike reports whether tag is a paragraph, span, anchor or inline
// emphasis element.
func IsTextLike(tag string) bool {
	return textLikeTags[strings.ToLower(tag)]
}

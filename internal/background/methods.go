package background

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/dom"
)

// maxVarDepth bounds var() indirection.
const maxVarDepth = 8

// backgroundClassHints mark classes that likely set a background.
var backgroundClassHints = []string{"background", "bg", "backdrop"}

// defaultCanvas is what a browser paints when no element sets a background.
var defaultCanvas = colour.Opaque(255, 255, 255)

// stateClassHints mark classes toggled by interaction; their rules describe
// a transient state, not the resting background.
var stateClassHints = []string{"active", "hover", "focus", "open", "toggle", "visible", "hidden", "transition", "animate"}

// computed reads the element's own computed background, or the request's
// precomputed value when one was supplied.
func (r *Resolver) computed(req Request) outcome {
	el := req.Element
	if req.Initial != "" {
		if c, ok := resolveColour(el, req.Initial); ok {
			return r.hit(c, parentOf(el), "precomputed background")
		}
	}
	c, ok, err := paintedBackground(el, dom.PseudoNone)
	if err != nil {
		r.logger.Debug("computed style read failed", "selector", el.Selector(), "error", err)
		return outcome{note: "computed style unavailable"}
	}
	if !ok {
		return outcome{note: "transparent"}
	}
	return r.hit(c, parentOf(el), "element computed background")
}

// cssRule matches the element's background-ish classes against readable
// stylesheet rules.
func (r *Resolver) cssRule(el dom.Element) outcome {
	classes := candidateClasses(el.Classes())
	if len(classes) == 0 {
		return outcome{note: "no background classes"}
	}

	doc := el.Document()
	if doc == nil {
		return outcome{note: "detached element"}
	}
	sheets, err := doc.StyleSheets()
	if err != nil {
		r.logger.Debug("stylesheets unavailable", "selector", el.Selector(), "error", err)
		return outcome{note: "stylesheets unavailable"}
	}

	skipped := 0
	for _, sheet := range sheets {
		rules, err := sheet.Rules()
		if err != nil {
			// Cross-origin sheets throw on access.
			skipped++
			r.logger.Debug("skipping unreadable stylesheet", "href", sheet.Href(), "error", err)
			continue
		}
		for _, class := range classes {
			for _, rule := range rules {
				if !rule.HasClassToken(class) {
					continue
				}
				for _, prop := range []string{"background-color", "background"} {
					v, ok := rule.Declarations[prop]
					if !ok {
						continue
					}
					if c, ok := resolveColour(el, v); ok {
						return r.hit(c, parentOf(el), "rule "+rule.Selector)
					}
				}
			}
		}
	}
	if skipped > 0 {
		return outcome{note: "no matching rule in readable stylesheets"}
	}
	return outcome{note: "no matching rule"}
}

// pseudo reads a ::before or ::after background. Pseudo-elements without
// content are not rendered and are ignored.
func (r *Resolver) pseudo(el dom.Element, p dom.Pseudo, validate bool) outcome {
	content, err := el.ComputedStyle(p, "content")
	if err != nil {
		r.logger.Debug("pseudo-element read failed", "selector", el.Selector(), "pseudo", p, "error", err)
		return outcome{note: "pseudo-element unreadable"}
	}
	switch strings.TrimSpace(content) {
	case "", "none", "normal":
		return outcome{}
	}

	c, ok, err := paintedBackground(el, p)
	if err != nil {
		r.logger.Debug("pseudo-element read failed", "selector", el.Selector(), "pseudo", p, "error", err)
		return outcome{note: "pseudo-element unreadable"}
	}
	if !ok {
		return outcome{}
	}
	if validate && (c.IsPureBlack() || c.IsPureWhite()) {
		return outcome{note: "rejected " + c.Key() + " overlay"}
	}
	return r.hit(c, el, string(p)+" background")
}

// domWalk climbs from the element itself through its ancestors and stops at
// the first painted background. An html/body hit is the page canvas; it is
// held back only when a later cross-check step will confirm or replace it.
func (r *Resolver) domWalk(el dom.Element, st *chainState) outcome {
	cur := el
	for depth := 0; depth < r.depth && cur != nil; depth++ {
		c, ok, err := paintedBackground(cur, dom.PseudoNone)
		if err != nil {
			r.logger.Debug("ancestor style read failed", "selector", cur.Selector(), "error", err)
		} else if ok {
			if isCanvas(cur.TagName()) {
				out := r.hit(c, parentOf(cur), fmt.Sprintf("page canvas from <%s>", cur.TagName()))
				if !st.deferCanvas {
					return out
				}
				if st.canvas == nil {
					st.canvas = &out.colour
					st.canvasFrom = cur.TagName()
				}
				return outcome{note: "only page canvas"}
			}
			note := "ancestor " + cur.Selector()
			if depth == 0 {
				note = "element background"
			}
			return r.hit(c, parentOf(cur), note)
		}

		parent, ok := cur.Parent()
		if !ok {
			break
		}
		cur = parent
	}
	return outcome{note: "no painted ancestor"}
}

// raster samples the screenshot under the element.
func (r *Resolver) raster(req Request, step Step, st *chainState) outcome {
	el := req.Element
	if step.ButtonOnly && !IsButtonLike(el) {
		return outcome{note: "skipped, not button-like"}
	}
	if req.Snapshot == nil {
		return outcome{note: "no snapshot"}
	}

	c, err := r.sampler.Sample(el, req.Snapshot)
	if err != nil {
		r.logger.Debug("raster sample failed", "selector", el.Selector(), "error", err)
		return outcome{note: err.Error()}
	}

	if step.CrossCheck && st.canvas != nil {
		if colour.IsVisuallySimilar(c, *st.canvas, r.threshold) {
			canvas := *st.canvas
			st.canvas = nil
			return outcome{colour: canvas, found: true, note: "page canvas confirmed by raster", method: MethodDOMWalk}
		}
		return outcome{colour: c, found: true, note: "raster differs from page canvas " + st.canvas.Key()}
	}
	n := r.sampler.Grid()
	return outcome{colour: c, found: true, note: fmt.Sprintf("median of %d×%d sampled pixels", n, n)}
}

// hit reports a found colour. A translucent colour is flattened onto the
// backgrounds beneath it, starting at under.
func (r *Resolver) hit(c colour.RGBA, under dom.Element, note string) outcome {
	if c.A < 255 {
		layer := c.Key()
		var base string
		c, base = r.flatten(c, under)
		note = fmt.Sprintf("%s; translucent %s composited over %s", note, layer, base)
	}
	return outcome{colour: c, found: true, note: note}
}

// flatten composites a translucent layer over the painted backgrounds of
// under and its ancestors until an opaque one is reached. Translucent
// ancestors are stacked in between. Without an opaque background within the
// depth bound, the stack sits on the default white canvas. It returns the
// opaque result and a description of the base.
func (r *Resolver) flatten(c colour.RGBA, under dom.Element) (colour.RGBA, string) {
	layers := []colour.RGBA{c}
	base, baseNote := defaultCanvas, "default white canvas"
	cur := under
	for depth := 0; depth < r.depth && cur != nil; depth++ {
		bg, ok, err := paintedBackground(cur, dom.PseudoNone)
		if err != nil {
			r.logger.Debug("ancestor style read failed", "selector", cur.Selector(), "error", err)
		} else if ok {
			if bg.A == 255 {
				base, baseNote = bg, bg.Key()+" of "+cur.Selector()
				break
			}
			layers = append(layers, bg)
		}
		cur = parentOf(cur)
	}
	for i := len(layers) - 1; i >= 0; i-- {
		base = colour.Composite(layers[i], base)
	}
	return base, baseNote
}

// paintedBackground returns the visible background of an element or
// pseudo-element: background-color, else the first stop of a gradient
// background-image.
func paintedBackground(el dom.Element, p dom.Pseudo) (colour.RGBA, bool, error) {
	v, err := el.ComputedStyle(p, "background-color")
	if err != nil {
		return colour.RGBA{}, false, err
	}
	if c, ok := resolveColour(el, v); ok {
		return c, true, nil
	}

	img, err := el.ComputedStyle(p, "background-image")
	if err != nil || !strings.Contains(img, "gradient(") {
		return colour.RGBA{}, false, nil
	}
	if c, ok := colour.ExtractFirst(img); ok {
		return c, true, nil
	}
	return colour.RGBA{}, false, nil
}

// resolveColour turns a CSS value into a painted colour, following var()
// references through the element's custom properties. Transparent and
// unparseable values report false.
func resolveColour(el dom.Element, value string) (colour.RGBA, bool) {
	for i := 0; i < maxVarDepth; i++ {
		name, fallback, ok := colour.ParseVar(value)
		if !ok {
			break
		}
		v, err := el.ComputedStyle(dom.PseudoNone, name)
		if err != nil || strings.TrimSpace(v) == "" {
			v = fallback
		}
		value = v
	}
	if strings.EqualFold(strings.TrimSpace(value), "currentcolor") {
		v, err := el.ComputedStyle(dom.PseudoNone, "color")
		if err != nil {
			return colour.RGBA{}, false
		}
		value = v
	}
	if colour.IsTransparentValue(value) {
		return colour.RGBA{}, false
	}
	if c, err := colour.Parse(value); err == nil {
		return c, true
	}
	// Shorthands and gradients.
	return colour.ExtractFirst(value)
}

func candidateClasses(classes []string) []string {
	var out []string
	for _, class := range classes {
		lc := strings.ToLower(class)
		if !containsAny(lc, backgroundClassHints) || containsAny(lc, stateClassHints) {
			continue
		}
		out = append(out, class)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// parentOf returns el's parent, or nil at the root.
func parentOf(el dom.Element) dom.Element {
	if p, ok := el.Parent(); ok {
		return p
	}
	return nil
}

func isCanvas(tag string) bool {
	return tag == "html" || tag == "body"
}

// IsButtonLike reports whether el renders as a button: a button or
// submit/button input, role="button", or a class naming a button.
func IsButtonLike(el dom.Element) bool {
	switch el.TagName() {
	case "button":
		return true
	case "input":
		if t, ok := el.Attribute("type"); ok {
			switch strings.ToLower(t) {
			case "submit", "button", "reset":
				return true
			}
		}
	}
	if role, ok := el.Attribute("role"); ok && strings.EqualFold(role, "button") {
		return true
	}
	for _, class := range el.Classes() {
		lc := strings.ToLower(class)
		if strings.Contains(lc, "button") || strings.Contains(lc, "btn") {
			return true
		}
	}
	return false
}

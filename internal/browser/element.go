package browser

import (
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/jmylchreest/sitehue/internal/dom"
)

// Element wraps a rendered element. Descriptions and computed styles are
// cached; an Element reflects the page at the time it was first read.
type Element struct {
	rod  *rod.Element
	page *Page

	desc   *Description
	styles map[string]string
}

var _ dom.Element = (*Element)(nil)

// Description is everything an audit reads from an element in one round
// trip.
type Description struct {
	Tag      string   `json:"tag"`
	Classes  []string `json:"classes"`
	Selector string   `json:"selector"`
	// Section and Block name the nearest page section and builder block.
	Section string `json:"section"`
	Block   string `json:"block"`
	// Text is the start of the element's text.
	Text       string `json:"text"`
	Colour     string `json:"colour"`
	FontSize   string `json:"font_size"`
	FontWeight string `json:"font_weight"`
	// Border is empty unless a visible border is drawn.
	Border string `json:"border"`
	Fill   string `json:"fill"`
}

const describeJS = `() => {
	const el = this;
	const part = e => {
		let s = e.tagName.toLowerCase();
		if (e.id) return s + '#' + e.id;
		const cls = [...e.classList].slice(0, 2);
		if (cls.length) s += '.' + cls.join('.');
		return s;
	};
	const path = [];
	for (let e = el; e && e.nodeType === 1 && path.length < 4; e = e.parentElement) {
		path.unshift(part(e));
		if (e.id) break;
	}
	const label = e => {
		if (!e) return '';
		return e.id || e.getAttribute('data-section-id') || e.getAttribute('aria-label') || [...e.classList].slice(0, 2).join(' ') || e.tagName.toLowerCase();
	};
	const section = el.closest('section, [data-section-id], header, footer, main, article');
	const block = el.closest('[class*="wp-block-"], .sqs-block, [data-block-type], [data-testid], .w-richtext');
	const s = getComputedStyle(el);
	const bw = parseFloat(s.borderTopWidth) || 0;
	const border = bw > 0 && s.borderTopStyle !== 'none' && s.borderTopStyle !== 'hidden' ? s.borderTopColor : '';
	const fill = el instanceof SVGElement ? s.fill : '';
	return JSON.stringify({
		tag: el.tagName.toLowerCase(),
		classes: [...el.classList],
		selector: path.join(' > '),
		section: label(section),
		block: block && block !== section ? label(block) : '',
		text: (el.innerText || el.textContent || '').trim().replace(/\s+/g, ' ').slice(0, 60),
		colour: s.color,
		font_size: s.fontSize,
		font_weight: s.fontWeight,
		border,
		fill,
	});
}`

// Describe reads the element's identity and paint.
func (e *Element) Describe() (*Description, error) {
	if e.desc != nil {
		return e.desc, nil
	}
	res, err := e.rod.Eval(describeJS)
	if err != nil {
		return nil, fmt.Errorf("browser: describe element: %w", err)
	}
	var d Description
	if err := json.Unmarshal([]byte(res.Value.Str()), &d); err != nil {
		return nil, fmt.Errorf("browser: decode element: %w", err)
	}
	e.desc = &d
	return e.desc, nil
}

// describe returns the description, or an empty one when the element is
// gone.
func (e *Element) describe() *Description {
	d, err := e.Describe()
	if err != nil {
		e.page.logger.Debug("element unreadable", "error", err)
		return &Description{}
	}
	return d
}

func (e *Element) TagName() string { return e.describe().Tag }

func (e *Element) Classes() []string { return e.describe().Classes }

func (e *Element) Selector() string { return e.describe().Selector }

func (e *Element) Document() dom.Document { return e.page }

// Attribute returns an attribute value.
func (e *Element) Attribute(name string) (string, bool) {
	v, err := e.rod.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

// ComputedStyle reads one computed property.
func (e *Element) ComputedStyle(pseudo dom.Pseudo, property string) (string, error) {
	key := string(pseudo) + "|" + property
	if v, ok := e.styles[key]; ok {
		return v, nil
	}
	res, err := e.rod.Eval(`(pseudo, prop) => getComputedStyle(this, pseudo || null).getPropertyValue(prop)`,
		string(pseudo), property)
	if err != nil {
		return "", fmt.Errorf("browser: computed style %s%s: %w", property, pseudo, err)
	}
	v := res.Value.Str()
	e.styles[key] = v
	return v, nil
}

// Rect returns the border box in document coordinates.
func (e *Element) Rect() (dom.Rect, error) {
	res, err := e.rod.Eval(`() => {
		const r = this.getBoundingClientRect();
		return JSON.stringify({x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height});
	}`)
	if err != nil {
		return dom.Rect{}, fmt.Errorf("browser: element box: %w", err)
	}
	var r dom.Rect
	if err := json.Unmarshal([]byte(res.Value.Str()), &r); err != nil {
		return dom.Rect{}, fmt.Errorf("browser: decode element box: %w", err)
	}
	return r, nil
}

// Parent returns the parent element.
func (e *Element) Parent() (dom.Element, bool) {
	if e.TagName() == "html" {
		return nil, false
	}
	parent, err := e.rod.Parent()
	if err != nil {
		return nil, false
	}
	return e.page.wrap(parent), true
}

// Contains reports whether other is e or inside it.
func (e *Element) Contains(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok {
		return false
	}
	in, err := e.rod.ContainsElement(o.rod)
	if err != nil {
		e.page.logger.Debug("contains check failed", "error", err)
		return false
	}
	return in
}

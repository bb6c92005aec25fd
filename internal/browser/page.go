package browser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sitehue/internal/dom"
	"github.com/jmylchreest/sitehue/internal/raster"
)

// Page is a loaded tab. It implements dom.Document.
type Page struct {
	rod    *rod.Page
	url    string
	logger hclog.Logger

	sheets []dom.StyleSheet
}

var _ dom.Document = (*Page)(nil)

// URL returns the address the page was opened with.
func (p *Page) URL() string {
	return p.url
}

// Close closes the tab.
func (p *Page) Close() error {
	return p.rod.Close()
}

// HTML returns the serialised document.
func (p *Page) HTML() (string, error) {
	res, err := p.rod.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return res.Value.Str(), nil
}

// eligibleJS returns rendered elements matching sel that own visible text.
const eligibleJS = `(sel, max) => {
	const out = [];
	for (const el of document.querySelectorAll(sel)) {
		if (max > 0 && out.length >= max) break;
		const own = [...el.childNodes].some(n => n.nodeType === 3 && n.textContent.trim() !== '');
		if (!own) continue;
		const s = getComputedStyle(el);
		if (s.display === 'none' || s.visibility === 'hidden' || parseFloat(s.opacity) === 0) continue;
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		out.push(el);
	}
	return out;
}`

// Elements returns up to max visible elements matching selector that carry
// their own text. max <= 0 means no limit.
func (p *Page) Elements(selector string, max int) ([]*Element, error) {
	found, err := p.rod.ElementsByJS(rod.Eval(eligibleJS, selector, max))
	if err != nil {
		return nil, fmt.Errorf("browser: query %q: %w", selector, err)
	}
	out := make([]*Element, len(found))
	for i, el := range found {
		out[i] = p.wrap(el)
	}
	return out, nil
}

func (p *Page) wrap(el *rod.Element) *Element {
	return &Element{rod: el, page: p, styles: make(map[string]string)}
}

// Snapshot captures a full-page PNG raster.
func (p *Page) Snapshot() (*raster.Snapshot, error) {
	data, err := p.rod.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("browser: decode screenshot: %w", err)
	}

	dpr := 1.0
	if res, err := p.rod.Eval(`() => window.devicePixelRatio`); err == nil {
		if v := res.Value.Num(); v > 0 {
			dpr = v
		}
	}
	return &raster.Snapshot{Image: img, DevicePixelRatio: dpr}, nil
}

// elementAtJS scrolls the document coordinate into the viewport and hit
// tests it there.
const elementAtJS = `(x, y) => {
	window.scrollTo(0, Math.max(0, y - window.innerHeight / 2));
	return document.elementFromPoint(x - window.scrollX, y - window.scrollY);
}`

// ElementAt returns the topmost element at a document coordinate.
func (p *Page) ElementAt(x, y float64) (dom.Element, error) {
	obj, err := p.rod.Evaluate(rod.Eval(elementAtJS, x, y).ByObject())
	if err != nil {
		return nil, fmt.Errorf("browser: hit test: %w", err)
	}
	if obj.ObjectID == "" {
		return nil, nil
	}
	el, err := p.rod.ElementFromObject(obj)
	if err != nil {
		return nil, fmt.Errorf("browser: hit test: %w", err)
	}
	return p.wrap(el), nil
}

// styleSheetsJS reads background declarations from every stylesheet.
// Reading cssRules of a cross-origin sheet throws; the error is reported
// per sheet.
const styleSheetsJS = `() => {
	const props = ['background-color', 'background'];
	const collect = (list, out) => {
		for (const rule of list) {
			if (rule.cssRules && !rule.selectorText) {
				if (!rule.media || window.matchMedia(rule.media.mediaText).matches) collect(rule.cssRules, out);
				continue;
			}
			if (!rule.selectorText || !rule.style) continue;
			const decl = {};
			for (const p of props) {
				const v = rule.style.getPropertyValue(p);
				if (v) decl[p] = v.trim();
			}
			if (Object.keys(decl).length) out.push({selector: rule.selectorText, declarations: decl});
		}
	};
	return JSON.stringify([...document.styleSheets].map(sheet => {
		try {
			const rules = [];
			collect(sheet.cssRules, rules);
			return {href: sheet.href || '', rules};
		} catch (e) {
			return {href: sheet.href || '', error: String(e)};
		}
	}));
}`

type sheetJSON struct {
	Href  string     `json:"href"`
	Rules []dom.Rule `json:"rules"`
	Error string     `json:"error"`
}

type styleSheet struct {
	href  string
	rules []dom.Rule
	err   error
}

func (s *styleSheet) Href() string { return s.href }

func (s *styleSheet) Rules() ([]dom.Rule, error) {
	return s.rules, s.err
}

// StyleSheets returns the document's stylesheets. They are read once per
// page.
func (p *Page) StyleSheets() ([]dom.StyleSheet, error) {
	if p.sheets != nil {
		return p.sheets, nil
	}
	res, err := p.rod.Eval(styleSheetsJS)
	if err != nil {
		return nil, fmt.Errorf("browser: read stylesheets: %w", err)
	}
	sheets, err := decodeStyleSheets(res.Value.Str())
	if err != nil {
		return nil, err
	}
	p.sheets = sheets
	p.logger.Trace("stylesheets loaded", "url", p.url, "count", len(sheets))
	return sheets, nil
}

func decodeStyleSheets(raw string) ([]dom.StyleSheet, error) {
	var decoded []sheetJSON
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("browser: decode stylesheets: %w", err)
	}
	out := make([]dom.StyleSheet, 0, len(decoded))
	for _, s := range decoded {
		sheet := &styleSheet{href: s.Href, rules: s.Rules}
		if s.Error != "" {
			sheet.err = errors.New(s.Error)
			sheet.rules = nil
		}
		out = append(out, sheet)
	}
	return out, nil
}

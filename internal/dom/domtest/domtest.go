// Package domtest provides an in-memory dom.Element tree for tests.
package domtest

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/sitehue/internal/dom"
)

// transparentDefault is what browsers report for an unset background.
const transparentDefault = "rgba(0, 0, 0, 0)"

// Node is a fake element. Zero-valued style maps behave like a browser with
// nothing set: transparent backgrounds and "none" pseudo content.
type Node struct {
	Tag       string
	ClassList []string
	Attrs     map[string]string
	Style     map[string]string
	Pseudo    map[dom.Pseudo]map[string]string
	Box       dom.Rect

	// StyleErr makes ComputedStyle fail for the given pseudo target.
	StyleErr map[dom.Pseudo]error
	// RectErr makes Rect fail.
	RectErr error

	Children []*Node

	parent *Node
	doc    *Document
}

// El builds a node.
func El(tag string, classes ...string) *Node {
	return &Node{Tag: strings.ToLower(tag), ClassList: classes}
}

// WithStyle sets computed style properties and returns n.
func (n *Node) WithStyle(kv ...string) *Node {
	if n.Style == nil {
		n.Style = make(map[string]string)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Style[kv[i]] = kv[i+1]
	}
	return n
}

// WithPseudo sets pseudo-element properties and returns n.
func (n *Node) WithPseudo(p dom.Pseudo, kv ...string) *Node {
	if n.Pseudo == nil {
		n.Pseudo = make(map[dom.Pseudo]map[string]string)
	}
	if n.Pseudo[p] == nil {
		n.Pseudo[p] = make(map[string]string)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Pseudo[p][kv[i]] = kv[i+1]
	}
	return n
}

// WithAttr sets an attribute and returns n.
func (n *Node) WithAttr(name, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[name] = value
	return n
}

// WithBox sets the document-space box and returns n.
func (n *Node) WithBox(x, y, w, h float64) *Node {
	n.Box = dom.Rect{X: x, Y: y, Width: w, Height: h}
	return n
}

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		c.adopt(n.doc)
	}
	n.Children = append(n.Children, children...)
	return n
}

func (n *Node) adopt(doc *Document) {
	n.doc = doc
	for _, c := range n.Children {
		c.parent = n
		c.adopt(doc)
	}
}

// TagName implements dom.Element.
func (n *Node) TagName() string { return n.Tag }

// Classes implements dom.Element.
func (n *Node) Classes() []string { return n.ClassList }

// Attribute implements dom.Element.
func (n *Node) Attribute(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// ComputedStyle implements dom.Element.
func (n *Node) ComputedStyle(pseudo dom.Pseudo, property string) (string, error) {
	if err := n.StyleErr[pseudo]; err != nil {
		return "", err
	}
	var styles map[string]string
	if pseudo == dom.PseudoNone {
		styles = n.Style
	} else {
		styles = n.Pseudo[pseudo]
	}
	if v, ok := styles[property]; ok {
		return v, nil
	}
	switch property {
	case "background-color":
		return transparentDefault, nil
	case "content":
		if pseudo != dom.PseudoNone {
			return "none", nil
		}
		return "normal", nil
	}
	// Custom properties inherit.
	if strings.HasPrefix(property, "--") && n.parent != nil {
		return n.parent.ComputedStyle(pseudo, property)
	}
	return "", nil
}

// Rect implements dom.Element.
func (n *Node) Rect() (dom.Rect, error) {
	if n.RectErr != nil {
		return dom.Rect{}, n.RectErr
	}
	return n.Box, nil
}

// Parent implements dom.Element.
func (n *Node) Parent() (dom.Element, bool) {
	if n.parent == nil {
		return nil, false
	}
	return n.parent, true
}

// Contains implements dom.Element.
func (n *Node) Contains(other dom.Element) bool {
	o, ok := other.(*Node)
	if !ok {
		return false
	}
	for ; o != nil; o = o.parent {
		if o == n {
			return true
		}
	}
	return false
}

// Selector implements dom.Element.
func (n *Node) Selector() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		part := cur.Tag
		if len(cur.ClassList) > 0 {
			part += "." + strings.Join(cur.ClassList, ".")
		}
		parts = append([]string{part}, parts...)
	}
	return strings.Join(parts, " > ")
}

// Document implements dom.Element.
func (n *Node) Document() dom.Document {
	if n.doc == nil {
		return nil
	}
	return n.doc
}

// Sheet is a fake stylesheet. A non-nil Err simulates a cross-origin sheet.
type Sheet struct {
	URL      string
	RuleList []dom.Rule
	Err      error
}

// Href implements dom.StyleSheet.
func (s *Sheet) Href() string { return s.URL }

// Rules implements dom.StyleSheet.
func (s *Sheet) Rules() ([]dom.Rule, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.RuleList, nil
}

// CrossOrigin returns a sheet whose rules cannot be read.
func CrossOrigin(href string) *Sheet {
	return &Sheet{URL: href, Err: fmt.Errorf("SecurityError: cannot access rules of %s", href)}
}

// Rule builds a rule from a selector and property/value pairs.
func Rule(selector string, kv ...string) dom.Rule {
	decl := make(map[string]string)
	for i := 0; i+1 < len(kv); i += 2 {
		decl[kv[i]] = kv[i+1]
	}
	return dom.Rule{Selector: selector, Declarations: decl}
}

// Document is a fake document rooted at Root.
type Document struct {
	Root   *Node
	Sheets []*Sheet
	// SheetsErr makes StyleSheets fail.
	SheetsErr error
	// Hit overrides hit testing when set.
	Hit func(x, y float64) *Node
	// HitErr makes ElementAt fail.
	HitErr error
}

// NewDocument links root and its subtree to a new document.
func NewDocument(root *Node, sheets ...*Sheet) *Document {
	d := &Document{Root: root, Sheets: sheets}
	root.parent = nil
	root.adopt(d)
	return d
}

// StyleSheets implements dom.Document.
func (d *Document) StyleSheets() ([]dom.StyleSheet, error) {
	if d.SheetsErr != nil {
		return nil, d.SheetsErr
	}
	out := make([]dom.StyleSheet, len(d.Sheets))
	for i, s := range d.Sheets {
		out[i] = s
	}
	return out, nil
}

// ElementAt implements dom.Document. Without a Hit override the deepest,
// last-painted node whose box contains the point wins.
func (d *Document) ElementAt(x, y float64) (dom.Element, error) {
	if d.HitErr != nil {
		return nil, d.HitErr
	}
	var hit *Node
	if d.Hit != nil {
		hit = d.Hit(x, y)
	} else {
		hit = hitTest(d.Root, x, y)
	}
	if hit == nil {
		return nil, nil
	}
	return hit, nil
}

func hitTest(n *Node, x, y float64) *Node {
	for i := len(n.Children) - 1; i >= 0; i-- {
		if h := hitTest(n.Children[i], x, y); h != nil {
			return h
		}
	}
	b := n.Box
	if !b.Empty() && x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height {
		return n
	}
	return nil
}

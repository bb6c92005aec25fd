package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmylchreest/sitehue/internal/colour"
)

// Role is how a colour was used by the element it was read from.
type Role string

const (
	RoleText       Role = "text"
	RoleBackground Role = "background"
	RoleBorder     Role = "border"
	RoleFill       Role = "fill"
)

// ErrUnknownRole is returned for a role outside the four known roles.
var ErrUnknownRole = errors.New("unknown colour role")

// ParseRole reads a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleText, RoleBackground, RoleBorder, RoleFill:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Source locates a sample on the site.
type Source struct {
	Page     string `json:"page,omitempty"`
	Section  string `json:"section,omitempty"`
	Block    string `json:"block,omitempty"`
	Selector string `json:"selector,omitempty"`
	// Context is a short human-readable description, e.g. the element text.
	Context string `json:"context,omitempty"`
	// Tag is the lowercase element tag name.
	Tag string `json:"tag,omitempty"`
	// ButtonLike marks elements rendered as buttons regardless of tag.
	ButtonLike bool `json:"button_like,omitempty"`
}

// Sample is one observation routed into a cluster. Original is the colour as
// read, before any merge, and never changes.
type Sample struct {
	Original colour.RGBA `json:"original"`
	Role     Role        `json:"role"`
	Source   Source      `json:"source"`
	Method   string      `json:"method,omitempty"`
}

// DefaultImportance ranks element tags for canonical tie-breaks.
var DefaultImportance = map[string]int{
	"h1": 100, "h2": 90, "h3": 80, "h4": 70, "h5": 60, "h6": 50,
	"button": 85,
	"p":      40,
	"a":      30,

	"div": 20, "section": 20, "article": 20, "aside": 20, "header": 20,
	"footer": 20, "main": 20, "nav": 20, "span": 20, "li": 20, "ul": 20,
	"ol": 20, "form": 20, "figure": 20, "blockquote": 20,

	"img": 10, "svg": 10, "picture": 10, "video": 10,
}

// importance scores a sample's element. Unknown tags score 0.
func importance(ranks map[string]int, src Source) int {
	score := ranks[strings.ToLower(src.Tag)]
	if src.ButtonLike && ranks["button"] > score {
		score = ranks["button"]
	}
	return score
}

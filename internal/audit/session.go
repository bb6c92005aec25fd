// Package audit runs the colour analysis over a stream of elements. A Session
// is the context object for one analysis run: create it at the start of a
// crawl, feed it every page's elements in order, and finalise it once.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sitehue/internal/background"
	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/contrast"
	"github.com/jmylchreest/sitehue/internal/dom"
	"github.com/jmylchreest/sitehue/internal/raster"
	"github.com/jmylchreest/sitehue/internal/registry"
)

// Options configures a Session. Zero values use package defaults.
type Options struct {
	MergeThreshold float64
	AncestorDepth  int
	SampleGrid     int
	Importance     map[string]int
	Chains         map[background.Platform]background.Chains
	Logger         hclog.Logger
}

// Subject is one element submitted for analysis, already past upstream
// eligibility filtering.
type Subject struct {
	Element  dom.Element
	Platform background.Platform
	Page     string
	Section  string
	Block    string
	Context  string

	// Foreground is the computed text colour.
	Foreground string
	// Border and Fill are optional extra colours to track.
	Border string
	Fill   string
	Size   contrast.TextSize

	// Snapshot is the page raster, or nil.
	Snapshot *raster.Snapshot
	// InitialBackground is an optional precomputed background value.
	InitialBackground string
}

// Finding is a contrast finding located on the site.
type Finding struct {
	contrast.Finding
	Source                registry.Source   `json:"source"`
	Method                background.Method `json:"method"`
	BackgroundExplanation string            `json:"background_explanation,omitempty"`
	// TextEntry and BackgroundEntry are the palette keys the pair's colours
	// were merged into. They are filled in by Finalize.
	TextEntry       string `json:"text_entry,omitempty"`
	BackgroundEntry string `json:"background_entry,omitempty"`
}

// Session holds the state of one analysis run. It is not safe for
// concurrent use.
type Session struct {
	resolver *background.Resolver
	registry *registry.Registry
	logger   hclog.Logger

	findings []Finding
	pages    []string
	seen     map[string]bool
	elements int
	started  time.Time
}

// NewSession starts an analysis run.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Session{
		resolver: background.New(background.Options{
			AncestorDepth:  opts.AncestorDepth,
			MergeThreshold: opts.MergeThreshold,
			Sampler:        raster.NewSampler(opts.SampleGrid),
			Chains:         opts.Chains,
			Logger:         logger.Named("resolver"),
		}),
		registry: registry.New(registry.Options{
			Threshold:  opts.MergeThreshold,
			Importance: opts.Importance,
			Logger:     logger.Named("registry"),
		}),
		logger:  logger,
		seen:    make(map[string]bool),
		started: time.Now(),
	}
}

// Registry returns the session's colour registry.
func (s *Session) Registry() *registry.Registry {
	return s.registry
}

// Analyze resolves the subject's background, tracks its colours and records
// a contrast finding. It returns the finding, or nil when no contrast pair
// applies. The only error is ctx's; samples tracked before it stay valid.
func (s *Session) Analyze(ctx context.Context, sub Subject) (*Finding, error) {
	el := sub.Element
	if sub.Page != "" && !s.seen[sub.Page] {
		s.seen[sub.Page] = true
		s.pages = append(s.pages, sub.Page)
	}
	s.elements++

	res, err := s.resolver.Resolve(ctx, background.Request{
		Element:  el,
		Platform: sub.Platform,
		Snapshot: sub.Snapshot,
		Initial:  sub.InitialBackground,
	})
	if err != nil {
		return nil, err
	}

	src := registry.Source{
		Page:       sub.Page,
		Section:    sub.Section,
		Block:      sub.Block,
		Selector:   el.Selector(),
		Context:    sub.Context,
		Tag:        el.TagName(),
		ButtonLike: background.IsButtonLike(el),
	}

	s.track(sub.Border, registry.RoleBorder, src, string(background.MethodComputed))
	s.track(sub.Fill, registry.RoleFill, src, string(background.MethodComputed))
	if res.Resolved() {
		if _, err := s.registry.TrackColour(*res.Colour, registry.RoleBackground, src, string(res.Method)); err != nil {
			s.logger.Debug("background not tracked", "selector", src.Selector, "error", err)
		}
	}

	if !s.track(sub.Foreground, registry.RoleText, src, string(background.MethodComputed)) {
		return nil, nil
	}
	fg := colour.MustParse(sub.Foreground)

	f, err := contrast.Evaluate(fg, res.Colour, sub.Size)
	if errors.Is(err, contrast.ErrIdenticalColours) {
		s.logger.Debug("skipping invisible text", "selector", src.Selector, "colour", fg.Key())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	finding := Finding{
		Finding:               f,
		Source:                src,
		Method:                res.Method,
		BackgroundExplanation: res.Explanation,
	}
	if f.CannotDetermine {
		s.logger.Info("background indeterminate", "selector", src.Selector, "page", src.Page, "reason", res.Explanation)
	}
	s.findings = append(s.findings, finding)
	return &finding, nil
}

// track routes raw into the registry and reports whether it was accepted.
// Empty values are ignored; invalid ones are logged by the registry.
func (s *Session) track(raw string, role registry.Role, src registry.Source, method string) bool {
	if raw == "" {
		return false
	}
	_, err := s.registry.Track(raw, role, src, method)
	return err == nil
}

// Findings returns the findings recorded so far.
func (s *Session) Findings() []Finding {
	out := make([]Finding, len(s.findings))
	copy(out, s.findings)
	return out
}

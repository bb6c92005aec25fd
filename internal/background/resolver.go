package background

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/dom"
	"github.com/jmylchreest/sitehue/internal/raster"
)

// DefaultAncestorDepth bounds the DOM walk.
const DefaultAncestorDepth = 15

// Result is the outcome of resolving one element's background.
type Result struct {
	// Colour is nil when the background is indeterminate.
	Colour      *colour.RGBA `json:"colour"`
	Method      Method       `json:"method"`
	Explanation string       `json:"explanation"`
}

// Resolved reports whether a colour was found.
func (r Result) Resolved() bool {
	return r.Colour != nil
}

// Request describes one element to resolve.
type Request struct {
	Element  dom.Element
	Platform Platform
	// Snapshot is optional; without it the raster step finds nothing.
	Snapshot *raster.Snapshot
	// Initial is an optional precomputed background value, used by the
	// computed-style step instead of reading the element.
	Initial string
}

// Options configures a Resolver.
type Options struct {
	AncestorDepth  int
	MergeThreshold float64
	Sampler        *raster.Sampler
	// Chains replaces chains per platform; missing platforms keep defaults.
	Chains map[Platform]Chains
	Logger hclog.Logger
}

// Resolver runs detection chains. It holds no per-element state and may be
// shared by every element of a run.
type Resolver struct {
	depth     int
	threshold float64
	sampler   *raster.Sampler
	chains    map[Platform]Chains
	logger    hclog.Logger
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	r := &Resolver{
		depth:     opts.AncestorDepth,
		threshold: opts.MergeThreshold,
		sampler:   opts.Sampler,
		chains:    DefaultChains(),
		logger:    opts.Logger,
	}
	if r.depth <= 0 {
		r.depth = DefaultAncestorDepth
	}
	if r.threshold <= 0 {
		r.threshold = colour.DefaultMergeThreshold
	}
	if r.sampler == nil {
		r.sampler = raster.NewSampler(raster.DefaultGrid)
	}
	if r.logger == nil {
		r.logger = hclog.NewNullLogger()
	}
	for p, c := range opts.Chains {
		r.chains[p] = c
	}
	return r
}

// ChainFor returns the chain used for a platform and tag.
func (r *Resolver) ChainFor(p Platform, tag string) Chain {
	chains, ok := r.chains[p]
	if !ok {
		chains = r.chains[PlatformGeneric]
	}
	return chains.For(tag)
}

// outcome is what a single step reports back to the executor.
type outcome struct {
	colour colour.RGBA
	found  bool
	note   string
	// method overrides the step's method tag in the Result.
	method Method
}

// chainState carries observations between steps of one resolution.
type chainState struct {
	// deferCanvas is set while a cross-check step is still ahead.
	deferCanvas bool
	canvas      *colour.RGBA
	canvasFrom  string
	notes       []string
}

func (s *chainState) note(m Method, msg string) {
	s.notes = append(s.notes, fmt.Sprintf("%s: %s", m, msg))
}

// Resolve runs the chain for the request's platform and tag. The only
// error is ctx's; detection failures never abort the chain and an element
// nothing can resolve yields an indeterminate Result, never a default colour.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	el := req.Element
	chain := r.ChainFor(req.Platform, el.TagName())
	st := &chainState{}

	for i, step := range chain {
		st.deferCanvas = hasCrossCheck(chain[i+1:])
		if err := ctx.Err(); err != nil {
			return Result{
				Method:      MethodIndeterminate,
				Explanation: "resolution cancelled",
			}, err
		}

		out := r.run(step, req, st)
		if out.found {
			c := out.colour
			m := step.Method
			if out.method != "" {
				m = out.method
			}
			return Result{Colour: &c, Method: m, Explanation: out.note}, nil
		}
		if out.note != "" {
			st.note(step.Method, out.note)
		}
	}

	if st.canvas != nil {
		return Result{
			Colour:      st.canvas,
			Method:      MethodDOMWalk,
			Explanation: fmt.Sprintf("page canvas from <%s>; no closer background found", st.canvasFrom),
		}, nil
	}

	r.logger.Debug("background indeterminate", "selector", el.Selector(), "platform", req.Platform, "chain", chain.String())
	return Result{
		Method:      MethodIndeterminate,
		Explanation: "no background could be determined (" + strings.Join(st.notes, "; ") + ")",
	}, nil
}

func hasCrossCheck(steps Chain) bool {
	for _, s := range steps {
		if s.CrossCheck {
			return true
		}
	}
	return false
}

func (r *Resolver) run(step Step, req Request, st *chainState) outcome {
	switch step.Method {
	case MethodComputed:
		return r.computed(req)
	case MethodCSSRule:
		return r.cssRule(req.Element)
	case MethodBefore:
		return r.pseudo(req.Element, dom.PseudoBefore, step.Validate)
	case MethodAfter:
		return r.pseudo(req.Element, dom.PseudoAfter, step.Validate)
	case MethodDOMWalk:
		return r.domWalk(req.Element, st)
	case MethodRaster:
		return r.raster(req, step, st)
	default:
		return outcome{note: "unsupported method"}
	}
}

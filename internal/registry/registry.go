// Package registry clusters observed colours so rendering artefacts collapse
// into one palette entry while deliberate palette differences stay apart.
package registry

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sitehue/internal/colour"
)

var (
	// ErrTransparent is returned for colours that paint nothing.
	ErrTransparent = errors.New("transparent colour")
	// ErrInvalidColour is returned for values that do not parse as a colour.
	ErrInvalidColour = colour.ErrInvalidColour
)

// Cluster is a group of samples judged visually indistinguishable.
type Cluster struct {
	Key       string      `json:"key"`
	Colour    colour.RGBA `json:"colour"`
	Instances []Sample    `json:"instances"`
	// Merged holds every other original key routed into the cluster,
	// including keys the cluster held before canonical selection.
	Merged *OrderedSet `json:"merged"`
}

// Count returns the number of samples in the cluster.
func (c *Cluster) Count() int {
	return len(c.Instances)
}

// Options configures a Registry.
type Options struct {
	// Threshold is the merge distance; <= 0 uses colour.DefaultMergeThreshold.
	Threshold float64
	// Importance overrides entries of DefaultImportance.
	Importance map[string]int
	Logger     hclog.Logger
}

// Registry is an online fuzzy clustering of colours. It is not safe for
// concurrent use; a crawl threads one Registry through its pages in order.
type Registry struct {
	threshold float64
	ranks     map[string]int
	logger    hclog.Logger

	// clusters is in creation order, which the first-match scan relies on.
	clusters []*Cluster
	byKey    map[string]*Cluster
	// alias maps every original key already routed to its cluster.
	alias map[string]*Cluster

	accepted  int
	dropped   int
	finalized bool
}

// New creates an empty Registry.
func New(opts Options) *Registry {
	r := &Registry{
		threshold: opts.Threshold,
		ranks:     make(map[string]int, len(DefaultImportance)),
		logger:    opts.Logger,
		byKey:     make(map[string]*Cluster),
		alias:     make(map[string]*Cluster),
	}
	if r.threshold <= 0 {
		r.threshold = colour.DefaultMergeThreshold
	}
	if r.logger == nil {
		r.logger = hclog.NewNullLogger()
	}
	for tag, score := range DefaultImportance {
		r.ranks[tag] = score
	}
	for tag, score := range opts.Importance {
		r.ranks[tag] = score
	}
	return r
}

// Track parses raw and routes it into a cluster, returning the cluster key.
// Transparent values return ErrTransparent. Unparseable values return
// ErrInvalidColour and are logged as a warning.
func (r *Registry) Track(raw string, role Role, src Source, method string) (string, error) {
	if colour.IsTransparentValue(raw) {
		r.dropped++
		return "", ErrTransparent
	}
	c, err := colour.Parse(raw)
	if err != nil {
		r.dropped++
		r.logger.Warn("dropping invalid colour", "value", raw, "role", role, "selector", src.Selector, "page", src.Page)
		return "", fmt.Errorf("track %q: %w", raw, err)
	}
	return r.TrackColour(c, role, src, method)
}

// TrackColour routes an already parsed colour into a cluster. Unknown roles
// are rejected.
func (r *Registry) TrackColour(c colour.RGBA, role Role, src Source, method string) (string, error) {
	if _, err := ParseRole(string(role)); err != nil {
		r.dropped++
		return "", fmt.Errorf("track %s: %w", c.Key(), err)
	}
	if c.IsTransparent() {
		r.dropped++
		return "", ErrTransparent
	}

	key := c.Key()
	cl := r.match(c, key)
	if cl == nil {
		cl = &Cluster{Key: key, Colour: c, Merged: NewOrderedSet()}
		r.clusters = append(r.clusters, cl)
		r.byKey[key] = cl
		r.logger.Trace("new cluster", "key", key)
	} else if key != cl.Key {
		cl.Merged.Add(key)
	}

	cl.Instances = append(cl.Instances, Sample{Original: c, Role: role, Source: src, Method: method})
	r.alias[key] = cl
	r.accepted++
	r.finalized = false
	return cl.Key, nil
}

// match finds the cluster for a colour: exact key, then a previously routed
// original, then the first cluster in creation order within the threshold.
func (r *Registry) match(c colour.RGBA, key string) *Cluster {
	if cl, ok := r.byKey[key]; ok {
		return cl
	}
	if cl, ok := r.alias[key]; ok {
		return cl
	}
	for _, cl := range r.clusters {
		if cl.Colour.A != c.A {
			continue
		}
		if colour.IsVisuallySimilar(c, cl.Colour, r.threshold) {
			return cl
		}
	}
	return nil
}

// Lookup returns the cluster currently holding key, as a canonical key or
// as a merged original.
func (r *Registry) Lookup(key string) (*Cluster, bool) {
	if cl, ok := r.byKey[key]; ok {
		return cl, true
	}
	cl, ok := r.alias[key]
	return cl, ok
}

// Clusters returns the clusters in creation order.
func (r *Registry) Clusters() []*Cluster {
	out := make([]*Cluster, len(r.clusters))
	copy(out, r.clusters)
	return out
}

// Len returns the number of clusters.
func (r *Registry) Len() int {
	return len(r.clusters)
}

// Accepted returns the number of samples routed into clusters.
func (r *Registry) Accepted() int {
	return r.accepted
}

// Dropped returns the number of transparent or invalid samples rejected.
func (r *Registry) Dropped() int {
	return r.dropped
}

// Finalized reports whether canonical selection ran since the last sample.
func (r *Registry) Finalized() bool {
	return r.finalized
}

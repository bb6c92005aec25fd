package registry

import (
	"cmp"
	"slices"

	"github.com/jmylchreest/sitehue/internal/colour"
)

// tally is the per-original summary used to pick a canonical key.
type tally struct {
	key    string
	colour colour.RGBA
	count  int
	score  int
	first  int
}

// Finalize re-keys every cluster to its canonical colour: the original with
// the most samples, then the highest element importance among its samples,
// then the one seen first. Running it again without new samples changes
// nothing.
func (r *Registry) Finalize() {
	for _, cl := range r.clusters {
		best := r.canonical(cl)
		if best.key == cl.Key {
			continue
		}
		r.logger.Debug("re-keying cluster", "from", cl.Key, "to", best.key, "count", best.count)

		delete(r.byKey, cl.Key)
		cl.Merged.Add(cl.Key)
		cl.Merged.Remove(best.key)
		cl.Key = best.key
		cl.Colour = best.colour
		r.byKey[cl.Key] = cl
	}
	r.finalized = true
}

func (r *Registry) canonical(cl *Cluster) tally {
	byKey := make(map[string]*tally)
	var order []*tally
	for i, s := range cl.Instances {
		k := s.Original.Key()
		t, ok := byKey[k]
		if !ok {
			t = &tally{key: k, colour: s.Original, first: i}
			byKey[k] = t
			order = append(order, t)
		}
		t.count++
		t.score = max(t.score, importance(r.ranks, s.Source))
	}

	best := slices.MinFunc(order, func(a, b *tally) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.first, b.first)
	})
	return *best
}

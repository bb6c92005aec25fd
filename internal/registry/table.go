package registry

import (
	"cmp"
	"slices"
)

// Entry is one row of the canonical colour table.
type Entry struct {
	Hex       string   `json:"hex"`
	Count     int      `json:"count"`
	Roles     []Role   `json:"roles"`
	Merged    []string `json:"merged,omitempty"`
	Instances []Sample `json:"instances"`
}

// Table returns one entry per cluster, most used first, ties by hex.
func (r *Registry) Table() []Entry {
	entries := make([]Entry, 0, len(r.clusters))
	for _, cl := range r.clusters {
		var roles []Role
		for _, s := range cl.Instances {
			if !slices.Contains(roles, s.Role) {
				roles = append(roles, s.Role)
			}
		}
		entries = append(entries, Entry{
			Hex:       cl.Key,
			Count:     cl.Count(),
			Roles:     roles,
			Merged:    cl.Merged.Values(),
			Instances: slices.Clone(cl.Instances),
		})
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Hex, b.Hex)
	})
	return entries
}

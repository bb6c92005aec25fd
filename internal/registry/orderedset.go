package registry

import "encoding/json"

// OrderedSet is a set of strings that remembers insertion order.
type OrderedSet struct {
	index map[string]int
	items []string
}

// NewOrderedSet creates a set holding values in the given order.
func NewOrderedSet(values ...string) *OrderedSet {
	s := &OrderedSet{index: make(map[string]int)}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add appends v unless present. It reports whether v was added.
func (s *OrderedSet) Add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = len(s.items)
	s.items = append(s.items, v)
	return true
}

// Remove deletes v, keeping the order of the rest.
func (s *OrderedSet) Remove(v string) bool {
	i, ok := s.index[v]
	if !ok {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, v)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

// Has reports membership.
func (s *OrderedSet) Has(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of values.
func (s *OrderedSet) Len() int {
	return len(s.items)
}

// Values returns a copy of the values in insertion order.
func (s *OrderedSet) Values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// MarshalJSON encodes the set as an array in insertion order.
func (s *OrderedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

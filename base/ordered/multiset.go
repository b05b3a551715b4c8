// Package ordered provides ordered data structure.
package ordered

// Multiset counts the occurrences of keys.
// Iterators visit keys in the order in which they have been added
// for the first time.
type Multiset[K comparable] struct {
	keys   []K
	counts map[K]int
}

// NewMultiset returns a new multiset containing the given keys.
func NewMultiset[K comparable](keys ...K) *Multiset[K] {
	s := &Multiset[K]{counts: make(map[K]int, len(keys))}
	s.Add(keys...)
	return s
}

// Add one occurrence of each key.
func (s *Multiset[K]) Add(keys ...K) {
	for _, k := range keys {
		n, in := s.counts[k]
		if !in {
			s.keys = append(s.keys, k)
		}
		s.counts[k] = n + 1
	}
}

// Iter returns an iterator over distinct keys and their count.
func (s *Multiset[K]) Iter() func(func(K, int) bool) {
	return func(yield func(K, int) bool) {
		for _, k := range s.keys {
			if !yield(k, s.counts[k]) {
				break
			}
		}
	}
}

// WithCount returns the keys occurring exactly n times, in order of first occurrence.
func (s *Multiset[K]) WithCount(n int) []K {
	var keys []K
	for k, c := range s.Iter() {
		if c == n {
			keys = append(keys, k)
		}
	}
	return keys
}

// Size returns the number of distinct keys.
func (s *Multiset[K]) Size() int {
	return len(s.keys)
}

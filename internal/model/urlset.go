package model

import "sort"

// URLSet is an unordered set of absolute URLs.
// The zero value is not usable; create sets with NewURLSet.
//
// URLSet is not safe for concurrent use. Each domain crawl owns its sets
// exclusively for the duration of the crawl.
type URLSet struct {
	items map[string]struct{}
}

// NewURLSet creates a set pre-populated with the given URLs.
func NewURLSet(urls ...string) *URLSet {
	s := &URLSet{items: make(map[string]struct{}, len(urls))}
	for _, u := range urls {
		s.items[u] = struct{}{}
	}
	return s
}

// Add inserts u and reports whether it was not already present.
func (s *URLSet) Add(u string) bool {
	if _, ok := s.items[u]; ok {
		return false
	}
	s.items[u] = struct{}{}
	return true
}

// Has reports whether u is in the set.
func (s *URLSet) Has(u string) bool {
	_, ok := s.items[u]
	return ok
}

// Len returns the number of URLs in the set.
func (s *URLSet) Len() int {
	return len(s.items)
}

// Sorted returns the set contents in lexical order.
// The result is never nil so it serializes as an empty JSON array.
func (s *URLSet) Sorted() []string {
	out := make([]string, 0, len(s.items))
	for u := range s.items {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

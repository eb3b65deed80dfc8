// Package sets provides a minimal generic hash set. It exists so callers
// tracking membership (planned targets, docs on disk, retained run IDs) do
// not each reinvent the map-to-empty-struct idiom.
package sets

// Set is a hash set over comparable keys. The zero value is not usable;
// construct with New.
type Set[T comparable] map[T]struct{}

// New returns a set containing the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has reports whether v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Delete removes v if present.
func (s Set[T]) Delete(v T) { delete(s, v) }

// Len returns the number of elements.
func (s Set[T]) Len() int { return len(s) }

package params

import "sort"

// Set is the accumulating resolution result: a flat mapping from
// parameter name to value. A nil value is an explicit null, recording
// that a lookup ran and found nothing; downstream consumers can
// distinguish that from a key that was never attempted. Alongside each
// value the set keeps the stage that last wrote it, for diagnostics
// and testing only.
//
// A Set is built fresh per resolution and is not safe for concurrent
// mutation.
type Set struct {
	values map[string]*string
	source map[string]Stage
}

func NewSet() *Set {
	return &Set{
		values: make(map[string]*string),
		source: make(map[string]Stage),
	}
}

// Put writes a single key. A later Put for the same key replaces the
// earlier value unconditionally; precedence ordering is the pipeline's
// concern, not the set's.
func (s *Set) Put(key string, value *string, stage Stage) {
	s.values[key] = value
	s.source[key] = stage
}

// Merge applies a stage's partial contribution with last-write-wins.
// Keys absent from the partial map are left untouched.
func (s *Set) Merge(partial map[string]*string, stage Stage) {
	for k, v := range partial {
		s.Put(k, v, stage)
	}
}

// Get returns the value for key. The bool reports whether the key is
// present at all; a present key may still carry a nil (explicit null)
// value.
func (s *Set) Get(key string) (*string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is present, null or not.
func (s *Set) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// IsSet reports whether key is present with a non-null value.
// A key present with an explicit null counts as unset, matching the
// write-eligibility rule for generated values.
func (s *Set) IsSet(key string) bool {
	v, ok := s.values[key]
	return ok && v != nil
}

// Source returns the stage that last wrote key.
func (s *Set) Source(key string) (Stage, bool) {
	st, ok := s.source[key]
	return st, ok
}

// Keys returns all parameter names in sorted order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of the underlying mapping.
func (s *Set) Values() map[string]*string {
	out := make(map[string]*string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *Set) Len() int {
	return len(s.values)
}

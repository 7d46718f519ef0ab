package confmap

import (
	"slices"
	"sort"

	"github.com/cockroachdb/errors"
)

// Mapping is a string-keyed collection of Values that remembers insertion order.
// The zero Mapping is not usable; call New.
type Mapping struct {
	keys []string
	vals map[string]Value
}

// New returns an empty Mapping.
func New() *Mapping {
	return &Mapping{vals: make(map[string]Value)}
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key. Replacing an existing key keeps its position.
func (m *Mapping) Set(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Delete removes key. Deleting an absent key is a no-op.
func (m *Mapping) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	if i := slices.Index(m.keys, key); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy of m.
func (m *Mapping) Clone() *Mapping {
	out := New()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, m.vals[k].Clone())
	}
	return out
}

// Equal reports whether m and o hold the same keys with deeply equal values.
// Key order is ignored.
func (m *Mapping) Equal(o *Mapping) bool {
	if m.Len() != o.Len() {
		return false
	}
	for _, k := range m.Keys() {
		ov, ok := o.Get(k)
		if !ok {
			return false
		}
		if !m.vals[k].Equal(ov) {
			return false
		}
	}
	return true
}

// ToMap converts m into nested plain Go maps. Order is lost.
func (m *Mapping) ToMap() map[string]any {
	out := make(map[string]any, m.Len())
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out[k] = m.vals[k].Any()
	}
	return out
}

// FromMap builds a Mapping from plain Go values. Go maps are unordered, so
// keys are inserted in sorted order to keep results deterministic.
func FromMap(src map[string]any) (*Mapping, error) {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := New()
	for _, k := range keys {
		v, err := FromAny(src[k])
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", k)
		}
		m.Set(k, v)
	}
	return m, nil
}

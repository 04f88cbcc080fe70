package value

import (
	"strings"
)

// Map is the shared, mutable, insertion-ordered mapping behind a MAP value.
// Keys are strings compared case-insensitively; the spelling of the first
// assignment is preserved for key listings.
type Map struct {
	entries []mapEntry
	index   map[string]int // folded key -> entries index
}

type mapEntry struct {
	fold  string
	name  string
	value Value
}

// foldName normalizes an identifier or key for case-insensitive matching.
func foldName(s string) string { return strings.ToLower(s) }

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Len returns the entry count.
func (m *Map) Len() int { return len(m.entries) }

// Get copies the value at key into out, matching case-insensitively.
// Missing keys write NULL and report false.
func (m *Map) Get(key string, out *Value) bool {
	if i, ok := m.index[foldName(key)]; ok {
		out.CopyFrom(&m.entries[i].value)
		return true
	}
	out.SetNull()
	return false
}

// Set assigns a copy of v at key, creating the entry if absent. An existing
// entry keeps its original key spelling and position.
func (m *Map) Set(key string, v *Value) {
	fold := foldName(key)
	if i, ok := m.index[fold]; ok {
		m.entries[i].value.CopyFrom(v)
		return
	}
	var e mapEntry
	e.fold = fold
	e.name = key
	e.value.CopyFrom(v)
	m.index[fold] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.index[foldName(key)]
	return ok
}

// Remove deletes the entry at key, reporting whether it existed.
func (m *Map) Remove(key string) bool {
	fold := foldName(key)
	i, ok := m.index[fold]
	if !ok {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, fold)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].fold] = j
	}
	return true
}

// Keys returns the keys in insertion order, in their original spelling.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.entries))
	for i := range m.entries {
		keys[i] = m.entries[i].name
	}
	return keys
}

// Each calls fn for every entry in insertion order until fn returns false.
func (m *Map) Each(fn func(key string, v *Value) bool) {
	for i := range m.entries {
		if !fn(m.entries[i].name, &m.entries[i].value) {
			return
		}
	}
}

// String renders the map contents for diagnostics and string coercion.
func (m *Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i := range m.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(m.entries[i].name)
		b.WriteString(": ")
		b.WriteString(m.entries[i].value.AsString())
	}
	b.WriteByte('}')
	return b.String()
}

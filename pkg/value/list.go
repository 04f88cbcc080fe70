package value

import (
	"sort"
	"strings"
)

// List is the shared, mutable, ordered sequence behind a LIST value.
// Every Value that refers to a List shares it; mutation through one holder
// is visible to all.
type List struct {
	items []Value
}

// NewList creates an empty list.
func NewList() *List { return &List{} }

// NewListCapacity creates an empty list with room for n elements.
func NewListCapacity(n int) *List { return &List{items: make([]Value, 0, n)} }

// NewListOfLength creates a list of n NULL elements.
func NewListOfLength(n int) *List { return &List{items: make([]Value, n)} }

// NewListOf creates a list from host values via Of.
func NewListOf(vals ...any) *List {
	l := NewListCapacity(len(vals))
	for _, v := range vals {
		l.items = append(l.items, Of(v))
	}
	return l
}

// Len returns the element count.
func (l *List) Len() int { return len(l.items) }

// Get copies the element at index i into out. Out-of-range indices write
// NULL and report false.
func (l *List) Get(i int, out *Value) bool {
	if i < 0 || i >= len(l.items) {
		out.SetNull()
		return false
	}
	out.CopyFrom(&l.items[i])
	return true
}

// Set overwrites the element at index i. Out-of-range indices are ignored.
func (l *List) Set(i int, v *Value) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	l.items[i].CopyFrom(v)
	return true
}

// Add appends a copy of v.
func (l *List) Add(v *Value) {
	var elem Value
	elem.CopyFrom(v)
	l.items = append(l.items, elem)
}

// AddAt inserts a copy of v at index i, shifting later elements right.
// Indices are clamped to the valid insertion range.
func (l *List) AddAt(i int, v *Value) {
	if i < 0 {
		i = 0
	}
	if i > len(l.items) {
		i = len(l.items)
	}
	var elem Value
	elem.CopyFrom(v)
	l.items = append(l.items, Value{})
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = elem
}

// RemoveAt removes the element at index i, copying it into out when out is
// non-nil. Out-of-range indices report false.
func (l *List) RemoveAt(i int, out *Value) bool {
	if i < 0 || i >= len(l.items) {
		if out != nil {
			out.SetNull()
		}
		return false
	}
	if out != nil {
		out.CopyFrom(&l.items[i])
	}
	copy(l.items[i:], l.items[i+1:])
	l.items[len(l.items)-1].SetNull()
	l.items = l.items[:len(l.items)-1]
	return true
}

// Remove removes the first element matching v and reports whether one was
// found. Matching uses value equality for null/boolean/numeric/string
// elements and reference identity for lists, maps, buffers, errors, and
// object handles.
func (l *List) Remove(v *Value) bool {
	i := l.IndexOf(v)
	if i < 0 {
		return false
	}
	return l.RemoveAt(i, nil)
}

// itemMatches is the membership predicate shared by Remove, IndexOf, and
// the sorted-set operations.
func itemMatches(a, b *Value) bool {
	if isNumericKind(a.typ) || a.typ == TypeString {
		return Equals(a, b)
	}
	return a.typ == b.typ && a.ref == b.ref
}

// IndexOf returns the index of the first element matching v, or -1.
func (l *List) IndexOf(v *Value) int {
	for i := range l.items {
		if itemMatches(&l.items[i], v) {
			return i
		}
	}
	return -1
}

// LastIndexOf returns the index of the last element matching v, or -1.
func (l *List) LastIndexOf(v *Value) int {
	for i := len(l.items) - 1; i >= 0; i-- {
		if itemMatches(&l.items[i], v) {
			return i
		}
	}
	return -1
}

// Contains reports whether an element matches v.
func (l *List) Contains(v *Value) bool { return l.IndexOf(v) >= 0 }

// Sort orders the list in place by the natural ordering: numeric values by
// value, strings lexicographically, mixed non-numeric values by type tag.
func (l *List) Sort() {
	sort.SliceStable(l.items, func(i, j int) bool {
		c, ok := Compare(&l.items[i], &l.items[j])
		return ok && c < 0
	})
}

// Sorted-set operations treat the list as a sorted discrete set and keep
// it sorted. They locate elements by binary search over the natural order,
// so they are only meaningful on lists maintained exclusively through them
// (or sorted first).

// search returns the index of an element matching v, or -1, plus the
// insertion point that keeps the list sorted.
func (l *List) search(v *Value) (at, insert int) {
	lo, hi := 0, len(l.items)
	for lo < hi {
		mid := (lo + hi) / 2
		c, ok := Compare(&l.items[mid], v)
		if !ok {
			// Unordered against v (NaN); treat as greater to terminate.
			c = 1
		}
		if c < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	// lo is the leftmost insertion point; scan forward over compare-equal
	// elements for an exact match.
	for i := lo; i < len(l.items); i++ {
		c, ok := Compare(&l.items[i], v)
		if !ok || c != 0 {
			break
		}
		if itemMatches(&l.items[i], v) {
			return i, lo
		}
	}
	return -1, lo
}

// SetAdd inserts v in sorted position unless an equal element is already
// present. Reports whether the list changed.
func (l *List) SetAdd(v *Value) bool {
	at, insert := l.search(v)
	if at >= 0 {
		return false
	}
	l.AddAt(insert, v)
	return true
}

// SetRemove removes the element equal to v, reporting whether it was found.
func (l *List) SetRemove(v *Value) bool {
	at, _ := l.search(v)
	if at < 0 {
		return false
	}
	return l.RemoveAt(at, nil)
}

// SetContains reports membership by binary search.
func (l *List) SetContains(v *Value) bool {
	at, _ := l.search(v)
	return at >= 0
}

// SetSearch returns the index of the element equal to v, or -1.
func (l *List) SetSearch(v *Value) int {
	at, _ := l.search(v)
	return at
}

// String renders the list contents for diagnostics and string coercion.
func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i := range l.items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(l.items[i].AsString())
	}
	b.WriteByte(']')
	return b.String()
}

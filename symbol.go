package barscan

import (
	"bytes"
	"iter"
	"time"
)

// Point is a location in image coordinates.
type Point struct {
	X, Y int
}

// Symbol is one decoded barcode.
//
// Symbols are pooled by the image scanner and carry a manual reference
// count. The image holds one reference; callers that keep a Symbol past
// the next scan of its image must take their own with Ref(1) and drop it
// with Ref(-1) when done. A Symbol is not safe for concurrent use.
type Symbol struct {
	Type Type
	Data []byte

	// Points are the scan line hits that produced the symbol, in the order
	// they were seen.
	Points []Point

	// Quality counts the decoder results that matched the symbol while
	// scanning its image.
	Quality int

	// CacheCount is the inter-frame consistency counter: negative while
	// unverified, 0 on first confirmation, positive for duplicates. Zero
	// when the cache is disabled.
	CacheCount int

	Orientation Orientation
	Modifiers   Modifier

	// Components holds the parts of a composite result, nil otherwise.
	Components *SymbolSet

	// Time is when the symbol was first decoded in its image.
	Time time.Time

	refs int
	next *Symbol
}

// NewSymbol returns a Symbol holding one reference.
func NewSymbol(t Type, data []byte) *Symbol {
	sym := &Symbol{Orientation: OrientUnknown, refs: 1}
	sym.Set(t, data)
	return sym
}

// Set stores the type and a copy of data, reusing the data buffer.
func (s *Symbol) Set(t Type, data []byte) {
	s.Type = t
	s.Data = append(s.Data[:0], data...)
}

// Text returns the symbol data as a string.
func (s *Symbol) Text() string {
	return string(s.Data)
}

// Matches reports whether s holds the same result as (t, data).
func (s *Symbol) Matches(t Type, data []byte) bool {
	return s.Type == t && bytes.Equal(s.Data, data)
}

// AddPoint appends a hit location to the symbol polygon.
func (s *Symbol) AddPoint(x, y int) {
	s.Points = append(s.Points, Point{X: x, Y: y})
}

// Next returns the following symbol of the set s belongs to.
func (s *Symbol) Next() *Symbol {
	return s.next
}

// Ref adjusts the reference count by delta and returns the new count.
func (s *Symbol) Ref(delta int) int {
	s.refs += delta
	return s.refs
}

// Reset clears s for reuse, keeping its buffers, and sets a single
// reference.
func (s *Symbol) Reset() {
	s.Type = None
	s.Data = s.Data[:0]
	s.Points = s.Points[:0]
	s.Quality = 0
	s.CacheCount = 0
	s.Orientation = OrientUnknown
	s.Modifiers = 0
	s.Components = nil
	s.Time = time.Time{}
	s.refs = 1
	s.next = nil
}

// SymbolSet is an ordered list of symbols.
type SymbolSet struct {
	head, tail *Symbol
	n          int
	refs       int
}

// NewSymbolSet returns an empty set holding one reference.
func NewSymbolSet() *SymbolSet {
	return &SymbolSet{refs: 1}
}

// Len returns the number of symbols in the set.
func (ss *SymbolSet) Len() int {
	if ss == nil {
		return 0
	}
	return ss.n
}

// First returns the first symbol, or nil when the set is empty.
func (ss *SymbolSet) First() *Symbol {
	if ss == nil {
		return nil
	}
	return ss.head
}

// All iterates over the symbols in insertion order.
func (ss *SymbolSet) All() iter.Seq[*Symbol] {
	return func(yield func(*Symbol) bool) {
		for sym := ss.First(); sym != nil; sym = sym.next {
			if !yield(sym) {
				return
			}
		}
	}
}

// Append adds sym to the end of the set. The set takes over the caller's
// reference.
func (ss *SymbolSet) Append(sym *Symbol) {
	sym.next = nil
	if ss.tail == nil {
		ss.head = sym
	} else {
		ss.tail.next = sym
	}
	ss.tail = sym
	ss.n++
}

// Find returns the symbol matching (t, data), or nil.
func (ss *SymbolSet) Find(t Type, data []byte) *Symbol {
	for sym := ss.First(); sym != nil; sym = sym.next {
		if sym.Matches(t, data) {
			return sym
		}
	}
	return nil
}

// Filter removes every symbol for which keep returns false and drops the
// set's reference to it. release is called for each removed symbol whose
// count reached zero.
func (ss *SymbolSet) Filter(keep func(*Symbol) bool, release func(*Symbol)) {
	var prev *Symbol
	for sym := ss.head; sym != nil; {
		next := sym.next
		if keep(sym) {
			prev = sym
			sym = next
			continue
		}
		if prev == nil {
			ss.head = next
		} else {
			prev.next = next
		}
		if ss.tail == sym {
			ss.tail = prev
		}
		ss.n--
		sym.next = nil
		if sym.Ref(-1) == 0 && release != nil {
			release(sym)
		}
		sym = next
	}
}

// Clear empties the set. release is called for each symbol whose
// reference count reached zero; symbols still referenced elsewhere are
// only unlinked.
func (ss *SymbolSet) Clear(release func(*Symbol)) {
	ss.Filter(func(*Symbol) bool { return false }, release)
}

// Ref adjusts the reference count of the set and returns the new count.
func (ss *SymbolSet) Ref(delta int) int {
	ss.refs += delta
	return ss.refs
}

package drawbatch

import (
	"iter"
	"math/bits"
	"strconv"
	"strings"
)

// MaxIndexSetSize is the number of distinct indices an IndexSet can hold.
const MaxIndexSetSize = 64

// IndexSet is a fixed-width set of small indices, used for render-pass and
// viewport membership. Union, intersection and equality are O(1);
// iteration is O(bits).
//
// The zero value is the empty set. IndexSet is a plain uint64, so it can be
// compared with == and used inside map keys.
type IndexSet uint64

// IndexSetOf returns a set containing the given indices.
func IndexSetOf(indices ...int) IndexSet {
	var s IndexSet
	for _, i := range indices {
		s = s.Add(i)
	}
	return s
}

func checkIndex(i int) {
	if i < 0 || i >= MaxIndexSetSize {
		panic("drawbatch: index set member " + strconv.Itoa(i) + " out of range [0, 64)")
	}
}

// Add returns s with index i added. Panics if i is outside [0, MaxIndexSetSize).
func (s IndexSet) Add(i int) IndexSet {
	checkIndex(i)
	return s | 1<<uint(i)
}

// Remove returns s with index i removed.
func (s IndexSet) Remove(i int) IndexSet {
	checkIndex(i)
	return s &^ (1 << uint(i))
}

// Contains reports whether index i is in s. Out-of-range indices are never
// members.
func (s IndexSet) Contains(i int) bool {
	if i < 0 || i >= MaxIndexSetSize {
		return false
	}
	return s&(1<<uint(i)) != 0
}

// Union returns the indices present in either set.
func (s IndexSet) Union(o IndexSet) IndexSet { return s | o }

// Intersect returns the indices present in both sets.
func (s IndexSet) Intersect(o IndexSet) IndexSet { return s & o }

// Len returns the number of members.
func (s IndexSet) Len() int { return bits.OnesCount64(uint64(s)) }

// IsEmpty reports whether the set has no members.
func (s IndexSet) IsEmpty() bool { return s == 0 }

// All iterates members in ascending order.
func (s IndexSet) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		word := uint64(s)
		for word != 0 {
			i := bits.TrailingZeros64(word)
			if !yield(i) {
				return
			}
			word &^= 1 << uint(i)
		}
	}
}

// String formats the set as {a,b,c}.
func (s IndexSet) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for i := range s.All() {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(strconv.Itoa(i))
	}
	sb.WriteByte('}')
	return sb.String()
}

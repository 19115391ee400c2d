package ir

import (
	"cmp"
	"strings"
)

// Compare returns an integer comparing two nodes.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
func Compare(a, b *Node) int {
	if a == b {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	rankA := rank(a.Kind)
	rankB := rank(b.Kind)
	if rankA != rankB {
		return cmp.Compare(rankA, rankB)
	}

	switch a.Kind {
	case NumberKind:
		return compareNumbers(a, b)
	case StringKind:
		return strings.Compare(a.String, b.String)
	case BoolKind:
		if a.Bool == b.Bool {
			return 0
		}
		if !a.Bool {
			return -1
		}
		return 1
	case SequenceKind:
		return compareSequences(a, b)
	case MappingKind:
		return compareMappings(a, b)
	case NullKind:
		return 0
	}
	return 0
}

// Equal reports structural equality, ignoring anchors and tags.
func Equal(a, b *Node) bool {
	return Compare(a, b) == 0
}

// rank orders kinds: Null < Bool < Number < String < Sequence < Mapping.
func rank(k Kind) int {
	switch k {
	case NullKind:
		return 0
	case BoolKind:
		return 1
	case NumberKind:
		return 2
	case StringKind:
		return 3
	case SequenceKind:
		return 4
	case MappingKind:
		return 5
	}
	return 100
}

func compareNumbers(a, b *Node) int {
	fa, aok := a.AsFloat()
	fb, bok := b.AsFloat()
	if aok && bok {
		return cmp.Compare(fa, fb)
	}
	return strings.Compare(a.ScalarString(), b.ScalarString())
}

func compareSequences(a, b *Node) int {
	lenA := len(a.Values)
	lenB := len(b.Values)
	for i := 0; i < min(lenA, lenB); i++ {
		if c := Compare(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(lenA, lenB)
}

func compareMappings(a, b *Node) int {
	lenA := len(a.Fields)
	lenB := len(b.Fields)
	for i := 0; i < min(lenA, lenB); i++ {
		if c := Compare(a.Fields[i], b.Fields[i]); c != 0 {
			return c
		}
		if c := Compare(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(lenA, lenB)
}

package ir

import (
	"encoding/binary"
	"hash/maphash"
	"math"
)

var hashSeed = maphash.MakeSeed()

// Hash returns a 64-bit hash of the node's value. Anchors and tags are
// excluded so that Hash is consistent with Equal: equal nodes hash equal.
// It panics if n is nil.
func (n *Node) Hash() uint64 {
	if n == nil {
		panic("ir: Hash called on nil node")
	}

	var h maphash.Hash
	h.SetSeed(hashSeed)
	n.hashInto(&h)
	return h.Sum64()
}

func (n *Node) hashInto(h *maphash.Hash) {
	h.WriteByte(byte(n.Kind))

	switch n.Kind {
	case NullKind:
	case BoolKind:
		if n.Bool {
			h.WriteByte(1)
		} else {
			h.WriteByte(0)
		}
	case NumberKind:
		// Equal compares numbers through AsFloat, so hash the same way.
		if f, ok := n.AsFloat(); ok {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
			h.Write(b[:])
		} else {
			h.WriteString(n.ScalarString())
		}
	case StringKind:
		h.WriteString(n.String)
	case SequenceKind:
		for _, v := range n.Values {
			v.hashInto(h)
		}
	case MappingKind:
		for i, field := range n.Fields {
			field.hashInto(h)
			n.Values[i].hashInto(h)
		}
	}
}

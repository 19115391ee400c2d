// Package ir provides the intermediate representation (IR) for YAML documents.
//
// # Overview
//
// All documents handled by this module (whether parsed from YAML text or
// created programmatically) are represented as ir.Node trees. The IR is a
// simple recursive tagged union: values live in different fields depending on
// the node kind, and composite nodes hold their children in Fields/Values
// slices. Mapping key order is preserved.
//
// # Kinds
//
//   - NullKind: null value
//   - BoolKind: boolean (true/false)
//   - NumberKind: numeric value (int64 or float64, string fallback)
//   - StringKind: string value
//   - MappingKind: key-value pairs (Fields and Values, same length)
//   - SequenceKind: ordered list of nodes (Values)
//
// # Anchors and aliases
//
// A node carries its anchor name in Anchor. Aliases are pointer sharing: the
// node anchored by `&name` is the same *Node at every `*name` site. The first
// occurrence in document order is the anchor occurrence, later occurrences
// are alias occurrences. Mutating an anchored node in place (see CopyInto) is
// therefore visible through every alias. Traversals guard against cyclic
// alias graphs, but the parser never produces them and the codec does not
// encode them.
//
// # Creating Nodes
//
// Use constructor functions to create nodes:
//
//	node := ir.FromString("hello")
//	num := ir.FromInt(42)
//	flag := ir.FromBool(true)
//	obj := ir.FromMap(map[string]*ir.Node{
//	    "key": ir.FromString("value"),
//	})
//	arr := ir.FromSlice([]*ir.Node{
//	    ir.FromInt(1),
//	    ir.FromInt(2),
//	})
//
// FromScalar types a raw scalar token the way YAML would.
package ir

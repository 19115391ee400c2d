// Package parse loads YAML documents into the ir representation.
//
// Anchors and aliases are resolved while loading: every alias site of an
// anchored node receives the same *ir.Node pointer, so later in-place
// updates through one site are visible through all of them.
package parse

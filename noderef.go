package yamlpath

import "github.com/wwkimball/yamlpath/ir"

// ancestor is one step of the lineage above a matched node.
type ancestor struct {
	node *ir.Node
	key  string
	idx  int
}

// NodeRef couples a matched node with the container holding it, so callers
// can mutate or delete the node through its parent. Parent is nil for the
// document root and for virtual results that live outside the document.
type NodeRef struct {
	Node   *ir.Node
	Parent *ir.Node

	// ParentKey names the mapping key under Parent when Parent is a
	// mapping; ParentIndex is the element position when Parent is a
	// sequence, -1 otherwise.
	ParentKey   string
	ParentIndex int

	// Path is the translated path: the concrete location of Node, with
	// every wildcard, search, and traversal resolved.
	Path *Path

	// Collected is non-nil for virtual results (collectors, slices): the
	// individual matches backing the synthetic sequence in Node.
	Collected []*NodeRef

	ancestry []ancestor
	segment  *Segment
}

func newNodeRef(
	node, parent *ir.Node, key string, idx int,
	path *Path, ancestry []ancestor, segment *Segment,
) *NodeRef {
	return &NodeRef{
		Node:        node,
		Parent:      parent,
		ParentKey:   key,
		ParentIndex: idx,
		Path:        path,
		ancestry:    ancestry,
		segment:     segment,
	}
}

// IsVirtual reports whether the reference points outside the document
// proper, such as a collector's synthetic sequence.
func (r *NodeRef) IsVirtual() bool {
	return r.Collected != nil
}

// Segment returns the path segment that matched this node.
func (r *NodeRef) Segment() *Segment {
	return r.segment
}

// appendAncestry copies the lineage and adds one entry; the copy keeps
// sibling branches from sharing backing arrays.
func appendAncestry(ancestry []ancestor, node *ir.Node, key string, idx int) []ancestor {
	next := make([]ancestor, len(ancestry), len(ancestry)+1)
	copy(next, ancestry)
	return append(next, ancestor{node: node, key: key, idx: idx})
}

// collectedValues builds the synthetic sequence node over a virtual result
// set.
func collectedValues(refs []*NodeRef) *ir.Node {
	vals := make([]*ir.Node, len(refs))
	for i, r := range refs {
		vals[i] = r.Node
	}
	return ir.FromSlice(vals)
}

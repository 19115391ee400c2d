package yamlpath

import (
	"fmt"

	"github.com/wwkimball/yamlpath/debug"
	"github.com/wwkimball/yamlpath/ir"
)

// AliasPolicy controls how repeated references to an anchored node are
// reported from GetNodes. The same *ir.Node can appear at its anchor site
// and at any number of alias sites; the policy decides which of those
// occurrences survive into the result set.
type AliasPolicy int

const (
	// KeyAliasPolicy reports the anchor site plus aliased mapping keys.
	KeyAliasPolicy AliasPolicy = iota
	// AnchorsOnlyPolicy reports only the first occurrence of each node.
	AnchorsOnlyPolicy
	// ValueAliasPolicy reports the anchor site plus aliased values.
	ValueAliasPolicy
	// AllAliasPolicy reports every occurrence.
	AllAliasPolicy
)

type getOptions struct {
	mustExist    bool
	defaultValue *ir.Node
	aliasPolicy  AliasPolicy
}

// GetOption adjusts node retrieval behavior.
type GetOption func(*getOptions)

// MustExist requires every path segment to match existing data; missing
// nodes become errors instead of being synthesized.
func MustExist() GetOption {
	return func(o *getOptions) { o.mustExist = true }
}

// WithDefault supplies the value assigned to nodes synthesized for path
// segments that do not yet exist.
func WithDefault(value *ir.Node) GetOption {
	return func(o *getOptions) { o.defaultValue = value }
}

// WithAliasPolicy overrides the default KeyAliasPolicy.
func WithAliasPolicy(policy AliasPolicy) GetOption {
	return func(o *getOptions) { o.aliasPolicy = policy }
}

// Processor queries and mutates a YAML document through paths.
type Processor struct {
	// Data is the document root. Mutating operations update it in place.
	Data *ir.Node
}

// NewProcessor returns a Processor over data.
func NewProcessor(data *ir.Node) *Processor {
	return &Processor{Data: data}
}

// GetNodes returns references to every node matched by path. Without
// MustExist, missing KEY and INDEX segments are synthesized on the way
// down; SEARCH, KEYWORD, and ANCHOR segments never synthesize.
func (p *Processor) GetNodes(path *Path, opts ...GetOption) ([]*NodeRef, error) {
	o := &getOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if p.Data == nil {
		if o.mustExist {
			return nil, &NotFoundError{Path: path.String()}
		}
		return nil, nil
	}
	if debug.Get() {
		debug.Logf("get: %s", path)
	}

	root := newNodeRef(p.Data, nil, "", -1, nil, nil, nil)
	var refs []*NodeRef
	var err error
	if o.mustExist || path.Len() == 0 {
		refs, err = p.getRequiredNodes(root, path, 0, true)
	} else {
		refs, err = p.getOptionalNodes(root, path, 0, o.defaultValue)
	}
	if err != nil {
		return nil, err
	}
	if o.mustExist && len(refs) == 0 {
		return nil, &NotFoundError{Path: path.String()}
	}
	return filterAliases(refs, o.aliasPolicy), nil
}

// SetValue assigns value to every node matched by path, synthesizing
// missing KEY and INDEX segments unless MustExist is given. Anchored
// nodes are updated in place, so every alias site observes the change.
func (p *Processor) SetValue(path *Path, value *ir.Node, opts ...GetOption) error {
	if value == nil {
		value = ir.Null()
	}
	if debug.Set() {
		debug.Logf("set: %s", path)
	}
	refs, err := p.GetNodes(path, opts...)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := p.applyChange(ref, value); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNodes removes every node matched by path from the document and
// returns references to the removed nodes. Deleting the document root is
// an error.
func (p *Processor) DeleteNodes(path *Path) ([]*NodeRef, error) {
	if debug.Delete() {
		debug.Logf("delete: %s", path)
	}
	refs, err := p.GetNodes(path, MustExist())
	if err != nil {
		return nil, err
	}
	for i := len(refs) - 1; i >= 0; i-- {
		if err := p.deleteRef(refs[i]); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

// TagNodes applies tag to every node matched by path.
func (p *Processor) TagNodes(path *Path, tag string) error {
	refs, err := p.GetNodes(path, MustExist())
	if err != nil {
		return err
	}
	for _, ref := range refs {
		for _, node := range refNodes(ref) {
			node.Tag = tag
		}
	}
	return nil
}

// AliasNodes makes every node matched by aliasPath an alias of the single
// node matched by targetPath. The target gains anchorName (or keeps its
// existing anchor when anchorName is empty and one is already set).
func (p *Processor) AliasNodes(aliasPath, targetPath *Path, anchorName string) error {
	targets, err := p.GetNodes(targetPath, MustExist())
	if err != nil {
		return err
	}
	if len(targets) != 1 {
		return pathErrf(targetPath.String(), 0, "alias target must match exactly one node, matched %d", len(targets))
	}
	target := targets[0].Node
	if anchorName != "" {
		known := ir.ScanAnchors(p.Data)
		if existing, ok := known[anchorName]; ok && existing != target {
			return pathErrf(targetPath.String(), 0, "anchor name %q is already used by another node", anchorName)
		}
		target.Anchor = anchorName
	} else if target.Anchor == "" {
		known := ir.ScanAnchors(p.Data)
		target.Anchor = ir.UniqueAnchorName("alias", known)
	}

	refs, err := p.GetNodes(aliasPath, MustExist())
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if ref.Node == target {
			continue
		}
		if err := p.replaceRef(ref, target); err != nil {
			return err
		}
	}
	return nil
}

// RenameAnchor changes an anchor name everywhere it is referenced.
func (p *Processor) RenameAnchor(oldName, newName string) error {
	if !ir.RenameAnchor(p.Data, oldName, newName) {
		return &NotFoundError{Path: "&" + oldName}
	}
	return nil
}

// applyChange writes value into the node behind ref. Virtual references
// fan the change out to every collected member. A reference produced by
// the name() keyword renames the mapping key instead of replacing data.
func (p *Processor) applyChange(ref *NodeRef, value *ir.Node) error {
	if ref.IsVirtual() {
		for _, member := range ref.Collected {
			if err := p.applyChange(member, value); err != nil {
				return err
			}
		}
		return nil
	}
	if seg := ref.Segment(); seg != nil &&
		seg.Type == SegmentKeywordSearch &&
		seg.Keyword != nil &&
		seg.Keyword.Keyword == KeywordName {
		return p.renameKey(ref, value.ScalarString())
	}
	p.updateNode(ref.Node, value)
	return nil
}

// renameKey changes the mapping key naming ref's parent entry.
func (p *Processor) renameKey(ref *NodeRef, newKey string) error {
	parent := ref.Parent
	if parent == nil || parent.Kind != ir.MappingKind {
		return pathErrf(ref.Path.String(), 0, "cannot rename a node that is not a mapping key")
	}
	if parent.FieldIndex(newKey) >= 0 {
		return pathErrf(ref.Path.String(), 0, "cannot rename key to %q because that key already exists", newKey)
	}
	i := parent.FieldIndex(ref.ParentKey)
	if i < 0 {
		return &NotFoundError{Path: ref.Path.String(), Segment: ref.ParentKey}
	}
	parent.Fields[i].String = newKey
	return nil
}

func (p *Processor) updateNode(node, value *ir.Node) {
	ir.CopyInto(node, value)
}

// replaceRef swaps the node behind ref for another node within its parent.
func (p *Processor) replaceRef(ref *NodeRef, node *ir.Node) error {
	parent := ref.Parent
	if parent == nil {
		p.Data = node
		return nil
	}
	switch parent.Kind {
	case ir.MappingKind:
		i := parent.FieldIndex(ref.ParentKey)
		if i < 0 {
			return &NotFoundError{Path: ref.Path.String(), Segment: ref.ParentKey}
		}
		parent.Values[i] = node
	case ir.SequenceKind:
		if ref.ParentIndex < 0 || ref.ParentIndex >= len(parent.Values) {
			return &NotFoundError{Path: ref.Path.String(), Segment: fmt.Sprintf("[%d]", ref.ParentIndex)}
		}
		parent.Values[ref.ParentIndex] = node
	default:
		return &TypeMismatchError{Path: ref.Path.String(), Msg: "parent node holds no children"}
	}
	return nil
}

// deleteRef removes the node behind ref from its parent.
func (p *Processor) deleteRef(ref *NodeRef) error {
	if ref.IsVirtual() {
		for i := len(ref.Collected) - 1; i >= 0; i-- {
			if err := p.deleteRef(ref.Collected[i]); err != nil {
				return err
			}
		}
		return nil
	}
	parent := ref.Parent
	if parent == nil {
		return pathErrf(ref.Path.String(), 0, "the document root cannot be deleted")
	}
	switch parent.Kind {
	case ir.MappingKind:
		i := parent.FieldIndex(ref.ParentKey)
		if i < 0 {
			return &NotFoundError{Path: ref.Path.String(), Segment: ref.ParentKey}
		}
		parent.RemoveField(i)
	case ir.SequenceKind:
		if ref.ParentIndex < 0 || ref.ParentIndex >= len(parent.Values) {
			return &NotFoundError{Path: ref.Path.String(), Segment: fmt.Sprintf("[%d]", ref.ParentIndex)}
		}
		parent.RemoveValue(ref.ParentIndex)
	default:
		return &TypeMismatchError{Path: ref.Path.String(), Msg: "parent node holds no children"}
	}
	return nil
}

// refNodes flattens a reference into its concrete nodes.
func refNodes(ref *NodeRef) []*ir.Node {
	if !ref.IsVirtual() {
		return []*ir.Node{ref.Node}
	}
	var nodes []*ir.Node
	for _, member := range ref.Collected {
		nodes = append(nodes, refNodes(member)...)
	}
	return nodes
}

// filterAliases drops repeat occurrences of shared nodes according to the
// alias policy. The first occurrence of any node is always kept.
func filterAliases(refs []*NodeRef, policy AliasPolicy) []*NodeRef {
	if policy == AllAliasPolicy {
		return refs
	}
	seen := make(map[*ir.Node]bool)
	out := refs[:0:0]
	for _, ref := range refs {
		if ref.IsVirtual() || !seen[ref.Node] {
			if !ref.IsVirtual() {
				seen[ref.Node] = true
			}
			out = append(out, ref)
			continue
		}
		switch policy {
		case KeyAliasPolicy:
			if isKeySite(ref) {
				out = append(out, ref)
			}
		case ValueAliasPolicy:
			if !isKeySite(ref) {
				out = append(out, ref)
			}
		}
	}
	return out
}

// isKeySite reports whether ref points at a mapping key node.
func isKeySite(ref *NodeRef) bool {
	if ref.Parent == nil || ref.Parent.Kind != ir.MappingKind {
		return false
	}
	for _, key := range ref.Parent.Fields {
		if key == ref.Node {
			return true
		}
	}
	return false
}

// Package merge combines two YAML documents under an explicit Config. The
// right document merges into the left at a configurable insertion point, with
// per-category and per-path strategies for mappings, arrays, arrays-of-hashes,
// and anchor conflicts. A failed merge leaves the left document untouched.
package merge

import (
	"errors"
	"maps"

	"github.com/wwkimball/yamlpath"
	"github.com/wwkimball/yamlpath/debug"
	"github.com/wwkimball/yamlpath/ir"
)

// Merger accumulates right-hand documents into a left-hand document.
type Merger struct {
	cfg      Config
	rules    ruleTable
	keys     ruleTable
	insertAt *yamlpath.Path
	data     *ir.Node
}

// NewMerger wraps lhs, which may be nil for an empty left document. The
// config's rule, key, and insertion-point paths are parsed here so a flawed
// config fails before any document is touched.
func NewMerger(lhs *ir.Node, cfg Config) (*Merger, error) {
	rules, err := compileRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	keys, err := compileRules(cfg.Keys)
	if err != nil {
		return nil, err
	}
	insertAt, err := cfg.insertionPoint()
	if err != nil {
		return nil, err
	}
	return &Merger{cfg: cfg, rules: rules, keys: keys, insertAt: insertAt, data: lhs}, nil
}

// Document returns the merged left document.
func (m *Merger) Document() *ir.Node { return m.data }

// MergeWith merges rhs into the left document. The merge is all-or-nothing:
// work happens on a clone of the left document and commits only when every
// insertion point merged cleanly. rhs is never modified.
func (m *Merger) MergeWith(rhs *ir.Node) error {
	if rhs == nil {
		return nil
	}
	insertAt := m.insertAt
	rhs = rhs.Clone()

	if m.data == nil {
		if insertAt.IsRoot() {
			m.data = rhs
			return nil
		}
		work := &ir.Node{Kind: ir.MappingKind}
		proc := yamlpath.NewProcessor(work)
		if _, err := proc.GetNodes(insertAt, yamlpath.WithDefault(rhs)); err != nil {
			return err
		}
		m.data = work
		return nil
	}

	work := m.data.Clone()
	if err := m.resolveAnchorConflicts(work, rhs); err != nil {
		return err
	}

	proc := yamlpath.NewProcessor(work)
	refs, err := proc.GetNodes(insertAt, yamlpath.MustExist())
	if err != nil {
		if errors.Is(err, yamlpath.ErrNotFound) {
			// The insertion point is novel; creating it plants RHS there.
			if _, err := proc.GetNodes(insertAt, yamlpath.WithDefault(rhs)); err != nil {
				return err
			}
			m.data = work
			return nil
		}
		return err
	}

	if debug.Merge() {
		debug.Logf("merge: merging into %d node(s) at %q\n", len(refs), insertAt.String())
	}
	for _, ref := range refs {
		if err := m.mergeNode(ref.Node, rhs.Clone(), insertAt); err != nil {
			return err
		}
	}
	m.data = work
	return nil
}

// mergeNode dispatches on the RHS document's kind against one insertion
// target.
func (m *Merger) mergeNode(target, rhs *ir.Node, path *yamlpath.Path) error {
	switch rhs.Kind {
	case ir.MappingKind:
		switch target.Kind {
		case ir.SequenceKind:
			return m.mergeSequences(target, ir.FromSlice([]*ir.Node{rhs}), path)
		case ir.MappingKind:
			mode, err := m.hashModeAt(path)
			if err != nil {
				return err
			}
			switch mode {
			case HashLeft:
				return nil
			case HashRight:
				ir.CopyInto(target, rhs)
				return nil
			}
			if err := m.mergeMappings(target, rhs, path); err != nil {
				return err
			}
			target.Tag = rhs.Tag
			return nil
		default:
			return mergeErrf(path.String(), "cannot merge mapping data into scalar data")
		}
	case ir.SequenceKind:
		if target.Kind == ir.MappingKind {
			return mergeErrf(path.String(),
				"cannot merge sequence data into a mapping without a key to receive the new elements")
		}
		if err := m.mergeSequences(target, rhs, path); err != nil {
			return err
		}
		target.Tag = rhs.Tag
		return nil
	default:
		switch target.Kind {
		case ir.SequenceKind:
			target.Append(rhs)
			return nil
		case ir.MappingKind:
			return mergeErrf(path.String(),
				"cannot merge a scalar value into a mapping without a key; supply a key: value pair or retarget the merge")
		default:
			ir.CopyInto(target, rhs)
			return nil
		}
	}
}

// mergeMappings deep-merges rhs pairs into lhs. Keys novel to lhs are
// buffered and inserted ahead of the following shared key so anchor
// definitions land before their aliases.
func (m *Merger) mergeMappings(lhs, rhs *ir.Node, path *yamlpath.Path) error {
	if lhs.Kind != ir.MappingKind {
		return mergeErrf(path.String(), "cannot merge mapping data into non-mapping data")
	}

	type pair struct{ key, val *ir.Node }
	var buffer []pair
	bufferPos := 0
	for i, keyNode := range rhs.Fields {
		key := keyNode.String
		val := rhs.Values[i]
		pathNext := path.AppendKey(key)

		if lhs.FieldIndex(key) < 0 {
			buffer = append(buffer, pair{keyNode, val})
			bufferPos++
			continue
		}

		for _, b := range buffer {
			lhs.InsertField(bufferPos, b.key, b.val)
			bufferPos++
		}
		buffer = buffer[:0]
		li := lhs.FieldIndex(key)

		switch val.Kind {
		case ir.MappingKind:
			mode, err := m.hashModeAt(pathNext)
			if err != nil {
				return err
			}
			switch mode {
			case HashLeft:
			case HashRight:
				lhs.Values[li] = val
			default:
				if err := m.mergeMappings(lhs.Values[li], val, pathNext); err != nil {
					return err
				}
				lhs.Values[li].Tag = val.Tag
			}
		case ir.SequenceKind:
			if err := m.mergeSequences(lhs.Values[li], val, pathNext); err != nil {
				return err
			}
			lhs.Values[li].Tag = val.Tag
		default:
			lhs.Values[li] = val
		}
		bufferPos++
	}

	// Whatever is still buffered follows nothing shared; append it.
	for _, b := range buffer {
		lhs.Fields = append(lhs.Fields, b.key)
		lhs.Values = append(lhs.Values, b.val)
	}
	return nil
}

// mergeSequences merges rhs elements into lhs, dispatching arrays-of-hashes
// to record pairing. RHS kind is judged from its first element.
func (m *Merger) mergeSequences(lhs, rhs *ir.Node, path *yamlpath.Path) error {
	if lhs.Kind != ir.SequenceKind {
		return mergeErrf(path.String(), "cannot merge sequence data into non-sequence data")
	}
	if len(rhs.Values) == 0 {
		return nil
	}
	if rhs.Values[0].Kind == ir.MappingKind {
		return m.mergeRecordLists(lhs, rhs, path)
	}

	mode, err := m.arrayModeAt(path)
	if err != nil {
		return err
	}
	switch mode {
	case ArrayLeft:
		return nil
	case ArrayRight:
		ir.CopyInto(lhs, rhs)
		return nil
	}
	for _, ele := range rhs.Values {
		if mode == ArrayUnique {
			if j := indexOfEqual(lhs.Values, ele); j >= 0 {
				lhs.Values[j] = ele
				continue
			}
		}
		lhs.Append(ele)
	}
	return nil
}

// mergeRecordLists merges an RHS array-of-hashes into lhs. Deep mode pairs
// records by identity key; a record without the key cannot merge.
func (m *Merger) mergeRecordLists(lhs, rhs *ir.Node, path *yamlpath.Path) error {
	mode, err := m.aohModeAt(path)
	if err != nil {
		return err
	}
	switch mode {
	case AoHLeft:
		return nil
	case AoHRight:
		ir.CopyInto(lhs, rhs)
		return nil
	}

	idKey := m.aohKeyAt(path, lhs, rhs)
	for idx, ele := range rhs.Values {
		switch mode {
		case AoHDeep:
			idVal := ir.Get(ele, idKey)
			if idVal == nil {
				return mergeErrf(path.AppendIndex(idx).String(),
					"mandatory identity key %q not present in record", idKey)
			}
			merged := false
			for _, rec := range lhs.Values {
				if rec.Kind != ir.MappingKind {
					continue
				}
				if lv := ir.Get(rec, idKey); lv != nil && ir.Equal(lv, idVal) {
					if err := m.mergeMappings(rec, ele, path.AppendIndex(idx)); err != nil {
						return err
					}
					rec.Tag = ele.Tag
					merged = true
					break
				}
			}
			if !merged {
				lhs.Append(ele)
			}
		case AoHUnique:
			if indexOfEqual(lhs.Values, ele) < 0 {
				lhs.Append(ele)
			}
		default:
			lhs.Append(ele)
		}
	}
	return nil
}

// resolveAnchorConflicts reconciles same-named anchors across the two
// documents before any data merges. Anchors with equal values fold onto the
// RHS node so the merged document defines the anchor once.
func (m *Merger) resolveAnchorConflicts(lhs, rhs *ir.Node) error {
	lhsAnchors := ir.ScanAnchors(lhs)
	rhsAnchors := ir.ScanAnchors(rhs)
	for name, rhsNode := range rhsAnchors {
		lhsNode, ok := lhsAnchors[name]
		if !ok {
			continue
		}
		if ir.Equal(lhsNode, rhsNode) && lhsNode.Tag == rhsNode.Tag {
			ir.ReplaceNode(lhs, lhsNode, rhsNode)
			continue
		}
		if debug.Merge() {
			debug.Logf("merge: anchor %q conflicts; resolving with %s\n", name, m.cfg.Anchors)
		}
		switch m.cfg.Anchors {
		case AnchorRename:
			known := map[string]*ir.Node{}
			maps.Copy(known, lhsAnchors)
			maps.Copy(known, rhsAnchors)
			fresh := ir.UniqueAnchorName(name, known)
			ir.RenameAnchor(rhs, name, fresh)
			rhsAnchors[fresh] = rhsNode
		case AnchorLeft:
			ir.ReplaceNode(rhs, rhsNode, lhsNode)
		case AnchorRight:
			ir.ReplaceNode(lhs, lhsNode, rhsNode)
		default:
			return mergeErrf("", "anchor conflict on %q; rename one of the anchors or configure a resolution side", name)
		}
	}
	return nil
}

// An inherited (prefix) rule whose value belongs to another category's
// vocabulary is skipped; it was written for nodes deeper in the subtree. An
// exact rule that fails to parse is a configuration error.
func (m *Merger) hashModeAt(path *yamlpath.Path) (HashStrategy, error) {
	if rule, exact, ok := m.rules.lookup(path); ok {
		mode, err := ParseHashStrategy(rule)
		if err == nil {
			return mode, nil
		}
		if exact {
			return mode, mergeErrf(path.String(), "%v", err)
		}
	}
	return m.cfg.Hashes, nil
}

func (m *Merger) arrayModeAt(path *yamlpath.Path) (ArrayStrategy, error) {
	if rule, exact, ok := m.rules.lookup(path); ok {
		mode, err := ParseArrayStrategy(rule)
		if err == nil {
			return mode, nil
		}
		if exact {
			return mode, mergeErrf(path.String(), "%v", err)
		}
	}
	return m.cfg.Arrays, nil
}

func (m *Merger) aohModeAt(path *yamlpath.Path) (AoHStrategy, error) {
	if rule, exact, ok := m.rules.lookup(path); ok {
		mode, err := ParseAoHStrategy(rule)
		if err == nil {
			return mode, nil
		}
		if exact {
			return mode, mergeErrf(path.String(), "%v", err)
		}
	}
	return m.cfg.AoH, nil
}

// aohKeyAt resolves the identity key for the record list at path: configured
// key first, else the first attribute of the first left record, else of the
// first right record.
func (m *Merger) aohKeyAt(path *yamlpath.Path, lhs, rhs *ir.Node) string {
	if key, _, ok := m.keys.lookup(path); ok {
		return key
	}
	for _, list := range []*ir.Node{lhs, rhs} {
		if len(list.Values) > 0 {
			first := list.Values[0]
			if first.Kind == ir.MappingKind && len(first.Fields) > 0 {
				return first.Fields[0].String
			}
		}
	}
	return ""
}

func indexOfEqual(values []*ir.Node, node *ir.Node) int {
	for i, v := range values {
		if ir.Equal(v, node) {
			return i
		}
	}
	return -1
}

// Package diff compares two YAML documents structurally, reporting the
// additions, deletions, and changes that turn the left document into the
// right one. Every entry is addressed by yamlpath. Sequences compare by
// position unless configured otherwise; arrays of hashes can additionally
// pair records by an identity key the way the merge package does.
package diff

import (
	"github.com/wwkimball/yamlpath"
	"github.com/wwkimball/yamlpath/debug"
	"github.com/wwkimball/yamlpath/ir"
)

// Differ compares documents under one Config.
type Differ struct {
	cfg     Config
	rules   ruleTable
	keys    ruleTable
	entries []*Entry
}

func NewDiffer(cfg Config) (*Differ, error) {
	rules, err := compileRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	keys, err := compileRules(cfg.Keys)
	if err != nil {
		return nil, err
	}
	return &Differ{cfg: cfg, rules: rules, keys: keys}, nil
}

// Compare diffs lhs against rhs. Entries come back in left-document
// traversal order and include Same entries; callers filter as needed.
// Neither document is modified.
func (d *Differ) Compare(lhs, rhs *ir.Node) ([]*Entry, error) {
	if debug.Diff() {
		debug.Logf("diff: comparing documents\n")
	}
	d.entries = nil
	if err := d.diffBetween(yamlpath.MustParse("/"), lhs, rhs); err != nil {
		return nil, err
	}
	entries := d.entries
	d.entries = nil
	return entries, nil
}

// Compare is the one-shot form of Differ.Compare.
func Compare(lhs, rhs *ir.Node, cfg Config) ([]*Entry, error) {
	d, err := NewDiffer(cfg)
	if err != nil {
		return nil, err
	}
	return d.Compare(lhs, rhs)
}

func (d *Differ) record(e *Entry) {
	d.entries = append(d.entries, e)
}

func (d *Differ) diffBetween(path *yamlpath.Path, lhs, rhs *ir.Node) error {
	if lhs == nil && rhs == nil {
		return nil
	}
	if lhs == nil {
		d.addAll(path, rhs)
		return nil
	}
	if rhs == nil {
		d.purge(path, lhs)
		return nil
	}

	switch {
	case lhs.Kind == ir.MappingKind && rhs.Kind == ir.MappingKind:
		return d.diffMappings(path, lhs, rhs)
	case lhs.Kind == ir.SequenceKind && rhs.Kind == ir.SequenceKind:
		return d.diffSequences(path, lhs, rhs)
	case lhs.Kind != ir.MappingKind && lhs.Kind != ir.SequenceKind &&
		rhs.Kind != ir.MappingKind && rhs.Kind != ir.SequenceKind:
		d.diffScalars(path, lhs, rhs)
		return nil
	}

	// Kind changed outright: everything left goes, everything right comes.
	d.purge(path, lhs)
	d.addAll(path, rhs)
	return nil
}

func (d *Differ) diffScalars(path *yamlpath.Path, lhs, rhs *ir.Node) {
	action := Change
	if ir.Equal(lhs, rhs) && lhs.Tag == rhs.Tag {
		action = Same
	}
	d.record(&Entry{Action: action, Path: path, LHS: lhs, RHS: rhs})
}

func (d *Differ) diffMappings(path *yamlpath.Path, lhs, rhs *ir.Node) error {
	if lhs.Tag != rhs.Tag {
		d.record(&Entry{Action: Delete, Path: path, LHS: lhs})
		d.record(&Entry{Action: Add, Path: path, RHS: rhs})
		return nil
	}

	for i, keyNode := range rhs.Fields {
		key := keyNode.String
		if li := lhs.FieldIndex(key); li >= 0 {
			err := d.diffBetween(path.AppendKey(key), lhs.Values[li], rhs.Values[i])
			if err != nil {
				return err
			}
		}
	}
	for i, keyNode := range lhs.Fields {
		if key := keyNode.String; rhs.FieldIndex(key) < 0 {
			d.record(&Entry{Action: Delete, Path: path.AppendKey(key), LHS: lhs.Values[i]})
		}
	}
	for i, keyNode := range rhs.Fields {
		if key := keyNode.String; lhs.FieldIndex(key) < 0 {
			d.record(&Entry{Action: Add, Path: path.AppendKey(key), RHS: rhs.Values[i]})
		}
	}
	return nil
}

func (d *Differ) diffSequences(path *yamlpath.Path, lhs, rhs *ir.Node) error {
	if isRecordList(rhs) || isRecordList(lhs) {
		return d.diffRecordLists(path, lhs, rhs)
	}
	mode, err := d.arrayModeAt(path)
	if err != nil {
		return err
	}
	if mode == ArrayValue {
		return d.diffSyncedByValue(path, lhs, rhs)
	}
	return d.diffByPosition(path, lhs, rhs, true)
}

// isRecordList reports whether list leads with a mapping element.
func isRecordList(list *ir.Node) bool {
	return len(list.Values) > 0 && list.Values[0].Kind == ir.MappingKind
}

// diffByPosition zips both lists. With deep set, paired elements are
// traversed; without it they are compared as whole units and equal pairs
// go unreported.
func (d *Differ) diffByPosition(path *yamlpath.Path, lhs, rhs *ir.Node, deep bool) error {
	n := len(lhs.Values)
	if len(rhs.Values) > n {
		n = len(rhs.Values)
	}
	for i := 0; i < n; i++ {
		next := path.AppendIndex(i)
		switch {
		case i >= len(lhs.Values):
			d.record(&Entry{Action: Add, Path: next, RHS: rhs.Values[i]})
		case i >= len(rhs.Values):
			d.record(&Entry{Action: Delete, Path: next, LHS: lhs.Values[i]})
		case deep:
			if err := d.diffBetween(next, lhs.Values[i], rhs.Values[i]); err != nil {
				return err
			}
		case !ir.Equal(lhs.Values[i], rhs.Values[i]):
			d.record(&Entry{Action: Change, Path: next, LHS: lhs.Values[i], RHS: rhs.Values[i]})
		}
	}
	return nil
}

type syncPair struct {
	li   int
	lele *ir.Node
	ri   int
	rele *ir.Node
}

// diffSyncedByValue re-aligns equal elements across both lists first, so a
// reordering reports clean rather than as element-by-element churn.
func (d *Differ) diffSyncedByValue(path *yamlpath.Path, lhs, rhs *ir.Node) error {
	for _, pair := range syncByValue(lhs, rhs) {
		switch {
		case pair.lele == nil:
			next := path.AppendIndex(pair.ri)
			// A delete already recorded at this path pairs with this
			// add into a single change.
			if prior := d.takeDelete(next); prior != nil {
				d.record(&Entry{Action: Change, Path: next, LHS: prior, RHS: pair.rele})
			} else {
				d.record(&Entry{Action: Add, Path: next, RHS: pair.rele})
			}
		case pair.rele == nil:
			d.record(&Entry{Action: Delete, Path: path.AppendIndex(pair.li), LHS: pair.lele})
		default:
			err := d.diffBetween(path.AppendIndex(pair.li), pair.lele, pair.rele)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// takeDelete removes and returns the most recent Delete entry at path.
func (d *Differ) takeDelete(path *yamlpath.Path) *ir.Node {
	for i := len(d.entries) - 1; i >= 0; i-- {
		e := d.entries[i]
		if e.Action == Delete && e.Path.Equals(path) {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return e.LHS
		}
	}
	return nil
}

// syncByValue pairs each left element with the first equal right element
// not yet claimed, preserving left order; unclaimed right elements trail.
// Candidates are screened by value hash before the full comparison.
func syncByValue(lhs, rhs *ir.Node) []syncPair {
	type indexed struct {
		idx  int
		hash uint64
		ele  *ir.Node
	}
	remaining := make([]indexed, 0, len(rhs.Values))
	for i, ele := range rhs.Values {
		remaining = append(remaining, indexed{idx: i, hash: ele.Hash(), ele: ele})
	}

	var pairs []syncPair
	for li, lele := range lhs.Values {
		lh := lele.Hash()
		matched := -1
		for ri, cand := range remaining {
			if cand.hash == lh && ir.Equal(cand.ele, lele) {
				matched = ri
				break
			}
		}
		if matched >= 0 {
			hit := remaining[matched]
			remaining = append(remaining[:matched], remaining[matched+1:]...)
			pairs = append(pairs, syncPair{li: li, lele: lele, ri: hit.idx, rele: hit.ele})
		} else {
			pairs = append(pairs, syncPair{li: li, lele: lele, ri: -1})
		}
	}
	for _, rest := range remaining {
		pairs = append(pairs, syncPair{li: -1, ri: rest.idx, rele: rest.ele})
	}
	return pairs
}

func (d *Differ) diffRecordLists(path *yamlpath.Path, lhs, rhs *ir.Node) error {
	mode, err := d.aohModeAt(path)
	if err != nil {
		return err
	}
	switch mode {
	case AoHPosition:
		return d.diffByPosition(path, lhs, rhs, false)
	case AoHDeepPosition:
		return d.diffByPosition(path, lhs, rhs, true)
	case AoHValue:
		return d.diffSyncedByValue(path, lhs, rhs)
	}

	idKey := d.identityKeyAt(path, lhs, rhs)
	if debug.Diff() {
		debug.Logf("diff: pairing records at %s by key %q\n", path, idKey)
	}
	deep := mode == AoHDeep
	for _, pair := range syncByKey(idKey, lhs, rhs) {
		switch {
		case pair.lele == nil:
			d.record(&Entry{Action: Add, Path: path.AppendIndex(pair.ri), RHS: pair.rele})
		case pair.rele == nil:
			d.record(&Entry{Action: Delete, Path: path.AppendIndex(pair.li), LHS: pair.lele})
		case deep:
			err := d.diffBetween(path.AppendIndex(pair.ri), pair.lele, pair.rele)
			if err != nil {
				return err
			}
		default:
			action := Change
			if ir.Equal(pair.lele, pair.rele) {
				action = Same
			}
			d.record(&Entry{
				Action: action, Path: path.AppendIndex(pair.li),
				LHS: pair.lele, RHS: pair.rele,
			})
		}
	}
	return nil
}

// syncByKey pairs records whose identity key values are equal. Records
// missing the key on either side cannot match anything.
func syncByKey(idKey string, lhs, rhs *ir.Node) []syncPair {
	type indexed struct {
		idx int
		ele *ir.Node
	}
	remaining := make([]indexed, 0, len(rhs.Values))
	for i, ele := range rhs.Values {
		remaining = append(remaining, indexed{idx: i, ele: ele})
	}

	var pairs []syncPair
	for li, lele := range lhs.Values {
		lid := ir.Get(lele, idKey)
		matched := -1
		if lid != nil {
			for ri, cand := range remaining {
				rid := ir.Get(cand.ele, idKey)
				if rid != nil && ir.Equal(rid, lid) {
					matched = ri
					break
				}
			}
		}
		if matched >= 0 {
			hit := remaining[matched]
			remaining = append(remaining[:matched], remaining[matched+1:]...)
			pairs = append(pairs, syncPair{li: li, lele: lele, ri: hit.idx, rele: hit.ele})
		} else {
			pairs = append(pairs, syncPair{li: li, lele: lele, ri: -1})
		}
	}
	for _, rest := range remaining {
		pairs = append(pairs, syncPair{li: -1, ri: rest.idx, rele: rest.ele})
	}
	return pairs
}

// purge records a Delete for every node under path.
func (d *Differ) purge(path *yamlpath.Path, node *ir.Node) {
	switch node.Kind {
	case ir.MappingKind:
		for i, keyNode := range node.Fields {
			d.record(&Entry{Action: Delete, Path: path.AppendKey(keyNode.String), LHS: node.Values[i]})
		}
	case ir.SequenceKind:
		for i, ele := range node.Values {
			d.record(&Entry{Action: Delete, Path: path.AppendIndex(i), LHS: ele})
		}
	default:
		d.record(&Entry{Action: Delete, Path: path, LHS: node})
	}
}

// addAll records an Add for every node under path.
func (d *Differ) addAll(path *yamlpath.Path, node *ir.Node) {
	switch node.Kind {
	case ir.MappingKind:
		for i, keyNode := range node.Fields {
			d.record(&Entry{Action: Add, Path: path.AppendKey(keyNode.String), RHS: node.Values[i]})
		}
	case ir.SequenceKind:
		for i, ele := range node.Values {
			d.record(&Entry{Action: Add, Path: path.AppendIndex(i), RHS: ele})
		}
	default:
		d.record(&Entry{Action: Add, Path: path, RHS: node})
	}
}

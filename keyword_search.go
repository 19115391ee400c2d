package yamlpath

import (
	"strconv"

	"github.com/expr-lang/expr"

	"github.com/wwkimball/yamlpath/ir"
)

// nodesByKeyword dispatches one `[keyword(parameters)]` segment.
func (p *Processor) nodesByKeyword(ref *NodeRef, path *Path, seg *Segment) ([]*NodeRef, error) {
	switch seg.Keyword.Keyword {
	case KeywordHasChild:
		return keywordHasChild(ref, path, seg)
	case KeywordName:
		return keywordName(ref, path, seg)
	case KeywordMax:
		return keywordMinMax(ref, path, seg, true)
	case KeywordMin:
		return keywordMinMax(ref, path, seg, false)
	case KeywordParent:
		return keywordParent(ref, path, seg)
	case KeywordDistinct:
		return keywordDistinct(ref, path, seg)
	case KeywordUnique:
		return keywordUnique(ref, path, seg)
	case KeywordExpr:
		return keywordExpr(ref, path, seg)
	}
	return nil, pathErrf(path.String(), 0,
		"unsupported search keyword %s", seg.Keyword.Keyword)
}

func keywordHasChild(ref *NodeRef, path *Path, seg *Segment) ([]*NodeRef, error) {
	terms := seg.Keyword
	if len(terms.Parameters) != 1 {
		return nil, pathErrf(path.String(), 0,
			"has_child(NAME) requires exactly 1 parameter, got %d", len(terms.Parameters))
	}
	matchKey := terms.Parameters[0]
	data := ref.Node

	switch data.Kind {
	case ir.MappingKind:
		present := data.FieldIndex(matchKey) >= 0
		if present != terms.Inverted {
			return []*NodeRef{ref}, nil
		}
		return nil, nil

	case ir.SequenceKind:
		if nodeIsAoH(data, false) {
			var out []*NodeRef
			for idx := range data.Values {
				sub, err := keywordHasChild(childByIndex(ref, idx, seg), path, seg)
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
			}
			return out, nil
		}
		present := false
		for _, ele := range data.Values {
			if ele.Kind.IsScalar() && ele.ScalarString() == matchKey {
				present = true
				break
			}
		}
		if present != terms.Inverted {
			return []*NodeRef{ref}, nil
		}
		return nil, nil

	case ir.NullKind:
		if terms.Inverted {
			return []*NodeRef{ref}, nil
		}
		return nil, nil
	}
	return nil, pathErrf(path.String(), 0, "scalar data has no child nodes")
}

func keywordName(ref *NodeRef, path *Path, seg *Segment) ([]*NodeRef, error) {
	terms := seg.Keyword
	if len(terms.Parameters) > 0 {
		return nil, pathErrf(path.String(), 0,
			"name() accepts no parameters, got %d", len(terms.Parameters))
	}
	if terms.Inverted {
		return nil, pathErrf(path.String(), 0, "inversion is meaningless to name()")
	}
	if ref.Parent == nil {
		return nil, pathErrf(path.String(), 0, "the document root has no name")
	}
	var nameNode *ir.Node
	if ref.Parent.Kind == ir.SequenceKind {
		nameNode = ir.FromInt(int64(ref.ParentIndex))
	} else {
		nameNode = ir.FromString(ref.ParentKey)
	}
	out := newNodeRef(
		nameNode, ref.Parent, ref.ParentKey, ref.ParentIndex,
		ref.Path, ref.ancestry, seg)
	return []*NodeRef{out}, nil
}

// keywordMinMax selects the nodes carrying the extreme value of a
// collection. Inversion yields every non-extreme node instead.
func keywordMinMax(ref *NodeRef, path *Path, seg *Segment, wantMax bool) ([]*NodeRef, error) {
	terms := seg.Keyword
	if len(terms.Parameters) > 1 {
		return nil, pathErrf(path.String(), 0,
			"%s([NAME]) permits up to 1 parameter, got %d",
			terms.Keyword, len(terms.Parameters))
	}
	scanKey := ""
	if len(terms.Parameters) == 1 {
		scanKey = terms.Parameters[0]
	}

	type candidate struct {
		ref  *NodeRef
		eval *ir.Node
	}
	var candidates []candidate
	var discards []*NodeRef
	data := ref.Node

	switch {
	case ref.IsVirtual() || nodeIsAoH(data, false):
		members := ref.Collected
		if members == nil {
			members = make([]*NodeRef, 0, len(data.Values))
			for idx := range data.Values {
				members = append(members, childByIndex(ref, idx, seg))
			}
		}
		if scanKey == "" && nodeIsAoH(collectedValues(members), false) {
			return nil, pathErrf(path.String(), 0,
				"%s([NAME]) requires a key name to scan when evaluating an array of mappings",
				terms.Keyword)
		}
		for _, member := range members {
			eval := member.Node
			if scanKey != "" {
				if member.Node.Kind != ir.MappingKind || member.Node.FieldIndex(scanKey) < 0 {
					discards = append(discards, member)
					continue
				}
				eval = ir.Get(member.Node, scanKey)
			}
			if eval.Kind == ir.NullKind {
				discards = append(discards, member)
				continue
			}
			candidates = append(candidates, candidate{ref: member, eval: eval})
		}

	case data.Kind == ir.MappingKind:
		if scanKey == "" {
			return nil, pathErrf(path.String(), 0,
				"%s([NAME]) requires a key name to scan when comparing mapping children",
				terms.Keyword)
		}
		for i, key := range data.Fields {
			val := data.Values[i]
			child := childByKey(ref, key.String, val, seg)
			if val.Kind != ir.MappingKind {
				if data.FieldIndex(scanKey) >= 0 {
					return nil, pathErrf(path.String(), 0,
						"%s([NAME]) compares collections of nodes sharing an attribute;"+
							" did you mean to evaluate the parent of the selected node?",
						terms.Keyword)
				}
				discards = append(discards, child)
				continue
			}
			if val.FieldIndex(scanKey) < 0 {
				discards = append(discards, child)
				continue
			}
			candidates = append(candidates, candidate{ref: child, eval: ir.Get(val, scanKey)})
		}

	case data.Kind == ir.SequenceKind:
		if scanKey != "" {
			return nil, pathErrf(path.String(), 0,
				"%s([NAME]) cannot use a key name when comparing sequence elements",
				terms.Keyword)
		}
		for idx, ele := range data.Values {
			child := childByIndex(ref, idx, seg)
			if ele.Kind == ir.NullKind {
				discards = append(discards, child)
				continue
			}
			candidates = append(candidates, candidate{ref: child, eval: ele})
		}

	default:
		// A scalar is always its own extreme and does not invert.
		return []*NodeRef{ref}, nil
	}

	var bestValue *ir.Node
	var matches []*NodeRef
	for _, cand := range candidates {
		if bestValue == nil {
			bestValue = cand.eval
			matches = []*NodeRef{cand.ref}
			continue
		}
		cmp := ir.Compare(cand.eval, bestValue)
		better := cmp > 0
		if !wantMax {
			better = cmp < 0
		}
		switch {
		case better:
			discards = append(discards, matches...)
			bestValue = cand.eval
			matches = []*NodeRef{cand.ref}
		case cmp == 0:
			matches = append(matches, cand.ref)
		default:
			discards = append(discards, cand.ref)
		}
	}

	if terms.Inverted {
		return discards, nil
	}
	return matches, nil
}

func keywordParent(ref *NodeRef, path *Path, seg *Segment) ([]*NodeRef, error) {
	terms := seg.Keyword
	if len(terms.Parameters) > 1 {
		return nil, pathErrf(path.String(), 0,
			"parent([STEPS]) permits up to 1 parameter, got %d", len(terms.Parameters))
	}
	if terms.Inverted {
		return nil, pathErrf(path.String(), 0, "inversion is meaningless to parent([STEPS])")
	}
	steps := 1
	if len(terms.Parameters) == 1 {
		parsed, err := strconv.Atoi(terms.Parameters[0])
		if err != nil {
			return nil, pathErrf(path.String(), 0,
				"parent([STEPS]) requires an integer step count, got %q", terms.Parameters[0])
		}
		steps = parsed
	}
	if steps < 1 {
		// parent(0) is the present node
		return []*NodeRef{ref}, nil
	}
	if steps > len(ref.ancestry) {
		return nil, pathErrf(path.String(), 0,
			"cannot climb %d steps when only %d are available above this node",
			steps, len(ref.ancestry))
	}

	n := len(ref.ancestry)
	target := ref.ancestry[n-steps]
	remaining := ref.ancestry[:n-steps]
	climbed := ref.Path
	for i := 0; i < steps; i++ {
		climbed, _ = climbed.Pop()
	}

	var parentNode *ir.Node
	key := ""
	idx := -1
	if len(remaining) > 0 {
		above := remaining[len(remaining)-1]
		parentNode = above.node
		key = above.key
		idx = above.idx
	}
	out := newNodeRef(target.node, parentNode, key, idx, climbed, remaining, seg)
	return []*NodeRef{out}, nil
}

// collectionMembers lists the elements a value-distribution keyword scans,
// paired with the value each one is judged by.
func collectionMembers(ref *NodeRef, path *Path, seg *Segment, scanKey string) ([]*NodeRef, []*ir.Node, error) {
	var members []*NodeRef
	data := ref.Node

	switch {
	case ref.IsVirtual():
		members = ref.Collected
	case data.Kind == ir.SequenceKind:
		for idx := range data.Values {
			members = append(members, childByIndex(ref, idx, seg))
		}
	case data.Kind == ir.MappingKind:
		for i, key := range data.Fields {
			members = append(members, childByKey(ref, key.String, data.Values[i], seg))
		}
	default:
		return nil, nil, pathErrf(path.String(), 0,
			"%s() operates against collections of nodes", seg.Keyword.Keyword)
	}

	values := make([]*ir.Node, len(members))
	for i, member := range members {
		if scanKey == "" {
			values[i] = member.Node
			continue
		}
		if member.Node.Kind != ir.MappingKind {
			return nil, nil, pathErrf(path.String(), 0,
				"%s(NAME) requires every element to be a mapping holding %q",
				seg.Keyword.Keyword, scanKey)
		}
		values[i] = ir.Get(member.Node, scanKey)
	}
	return members, values, nil
}

func keywordDistinct(ref *NodeRef, path *Path, seg *Segment) ([]*NodeRef, error) {
	terms := seg.Keyword
	if terms.Inverted {
		return nil, pathErrf(path.String(), 0, "inversion is meaningless to distinct()")
	}
	if len(terms.Parameters) > 1 {
		return nil, pathErrf(path.String(), 0,
			"distinct([NAME]) permits up to 1 parameter, got %d", len(terms.Parameters))
	}
	scanKey := ""
	if len(terms.Parameters) == 1 {
		scanKey = terms.Parameters[0]
	}
	members, values, err := collectionMembers(ref, path, seg, scanKey)
	if err != nil {
		return nil, err
	}

	var out []*NodeRef
	var seen []*ir.Node
	for i, member := range members {
		duplicate := false
		for _, prior := range seen {
			if ir.Equal(values[i], prior) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			seen = append(seen, values[i])
			out = append(out, member)
		}
	}
	return out, nil
}

func keywordUnique(ref *NodeRef, path *Path, seg *Segment) ([]*NodeRef, error) {
	terms := seg.Keyword
	if len(terms.Parameters) > 1 {
		return nil, pathErrf(path.String(), 0,
			"unique([NAME]) permits up to 1 parameter, got %d", len(terms.Parameters))
	}
	scanKey := ""
	if len(terms.Parameters) == 1 {
		scanKey = terms.Parameters[0]
	}
	members, values, err := collectionMembers(ref, path, seg, scanKey)
	if err != nil {
		return nil, err
	}

	var out []*NodeRef
	for i, member := range members {
		count := 0
		for _, other := range values {
			if ir.Equal(values[i], other) {
				count++
			}
		}
		// Inverted, unique() selects the duplicated values instead.
		if (count == 1) != terms.Inverted {
			out = append(out, member)
		}
	}
	return out, nil
}

// keywordExpr filters children through a compiled expression. The predicate
// sees each child as `value` and its key or index as `name`.
func keywordExpr(ref *NodeRef, path *Path, seg *Segment) ([]*NodeRef, error) {
	terms := seg.Keyword
	if terms.Program == nil {
		return nil, pathErrf(path.String(), 0, "expr(PREDICATE) was not compiled")
	}
	data := ref.Node

	evaluate := func(name any, node *ir.Node) (bool, error) {
		result, err := expr.Run(terms.Program, map[string]any{
			"name":  name,
			"value": nodeToAny(node),
		})
		if err != nil {
			return false, pathErrf(path.String(), 0, "expr(PREDICATE) failed: %v", err)
		}
		truthy := false
		switch v := result.(type) {
		case bool:
			truthy = v
		case nil:
		default:
			truthy = true
		}
		return truthy != terms.Inverted, nil
	}

	var out []*NodeRef
	switch data.Kind {
	case ir.MappingKind:
		for i, key := range data.Fields {
			keep, err := evaluate(key.String, data.Values[i])
			if err != nil {
				return nil, err
			}
			if keep {
				out = append(out, childByKey(ref, key.String, data.Values[i], seg))
			}
		}
	case ir.SequenceKind:
		for idx, ele := range data.Values {
			keep, err := evaluate(idx, ele)
			if err != nil {
				return nil, err
			}
			if keep {
				out = append(out, childByIndex(ref, idx, seg))
			}
		}
	default:
		var name any
		if ref.Parent != nil && ref.Parent.Kind == ir.SequenceKind {
			name = ref.ParentIndex
		} else {
			name = ref.ParentKey
		}
		keep, err := evaluate(name, data)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, ref)
		}
	}
	return out, nil
}

// nodeToAny converts a node into plain Go data for expression evaluation.
func nodeToAny(node *ir.Node) any {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case ir.MappingKind:
		m := make(map[string]any, len(node.Fields))
		for i, key := range node.Fields {
			m[key.String] = nodeToAny(node.Values[i])
		}
		return m
	case ir.SequenceKind:
		s := make([]any, len(node.Values))
		for i, ele := range node.Values {
			s[i] = nodeToAny(ele)
		}
		return s
	}
	return node.ScalarValue()
}

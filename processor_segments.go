package yamlpath

import (
	"strconv"

	"github.com/wwkimball/yamlpath/ir"
)

// getRequiredNodes descends through path from ref, matching only nodes that
// already exist in the document.
func (p *Processor) getRequiredNodes(ref *NodeRef, path *Path, depth int, traverseLists bool) ([]*NodeRef, error) {
	if depth >= path.Len() {
		return []*NodeRef{ref}, nil
	}
	matches, err := p.segmentNodes(ref, path, depth, traverseLists)
	if err != nil {
		return nil, err
	}
	var out []*NodeRef
	for _, match := range matches {
		sub, err := p.getRequiredNodes(match, path, depth+1, true)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// getOptionalNodes descends through path from ref, synthesizing missing KEY
// and INDEX segments as it goes. SEARCH and KEYWORD_SEARCH segments never
// synthesize; when they match nothing the result is simply empty.
func (p *Processor) getOptionalNodes(ref *NodeRef, path *Path, depth int, defaultValue *ir.Node) ([]*NodeRef, error) {
	if depth >= path.Len() {
		return []*NodeRef{ref}, nil
	}
	seg := path.Segments()[depth]
	matches, err := p.segmentNodes(ref, path, depth, true)
	if err != nil {
		return nil, err
	}

	var out []*NodeRef
	for _, match := range matches {
		if !match.IsVirtual() && match.Node.Kind == ir.NullKind {
			// A null node cannot be descended into; relay it for the
			// caller to overwrite.
			out = append(out, match)
			continue
		}
		sub, err := p.getOptionalNodes(match, path, depth+1, defaultValue)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	if len(out) > 0 || len(matches) > 0 ||
		seg.Type == SegmentSearch || seg.Type == SegmentKeywordSearch {
		return out, nil
	}

	return p.synthesizeNode(ref, path, depth, seg, defaultValue)
}

// synthesizeNode creates the missing child a deterministic segment names,
// then resumes the optional descent through it.
func (p *Processor) synthesizeNode(ref *NodeRef, path *Path, depth int, seg *Segment, defaultValue *ir.Node) ([]*NodeRef, error) {
	data := ref.Node
	switch data.Kind {
	case ir.SequenceKind:
		switch seg.Type {
		case SegmentAnchor:
			elem := buildNextNode(path, depth+1, defaultValue)
			elem.Anchor = seg.Anchor
			data.Append(elem)
			idx := len(data.Values) - 1
			next := newNodeRef(
				elem, data, "", idx, ref.Path.AppendIndex(idx),
				appendAncestry(ref.ancestry, data, "", idx), seg)
			return p.getOptionalNodes(next, path, depth+1, defaultValue)
		case SegmentIndex, SegmentKey:
			idx := seg.Index
			if seg.Type == SegmentKey {
				parsed, err := strconv.Atoi(seg.Key)
				if err != nil {
					return nil, pathErrf(path.String(), 0,
						"cannot add non-integer key %q to a sequence", seg.Key)
				}
				idx = parsed
			}
			if idx < 0 {
				return nil, pathErrf(path.String(), 0,
					"cannot grow a sequence to negative index %d", idx)
			}
			for len(data.Values) <= idx {
				data.Append(buildNextNode(path, depth+1, defaultValue))
			}
			next := newNodeRef(
				data.Values[idx], data, "", idx, ref.Path.AppendIndex(idx),
				appendAncestry(ref.ancestry, data, "", idx), seg)
			return p.getOptionalNodes(next, path, depth+1, defaultValue)
		}
		return nil, pathErrf(path.String(), 0,
			"cannot add %s subreference to a sequence", seg.Type)

	case ir.MappingKind:
		switch seg.Type {
		case SegmentAnchor:
			return nil, pathErrf(path.String(), 0, "cannot add anchor keys to a mapping")
		case SegmentKey:
			child := buildNextNode(path, depth+1, defaultValue)
			data.SetField(seg.Key, child)
			next := newNodeRef(
				child, data, seg.Key, -1, ref.Path.AppendKey(seg.Key),
				appendAncestry(ref.ancestry, data, seg.Key, -1), seg)
			return p.getOptionalNodes(next, path, depth+1, defaultValue)
		}
		return nil, pathErrf(path.String(), 0,
			"cannot add %s subreference to a mapping", seg.Type)
	}

	return nil, pathErrf(path.String(), 0,
		"cannot add %s subreference to a scalar", seg.Type)
}

// buildNextNode returns the most appropriate empty container, or the
// default value, for the path segment at depth.
func buildNextNode(path *Path, depth int, defaultValue *ir.Node) *ir.Node {
	if depth < path.Len() {
		switch path.Segments()[depth].Type {
		case SegmentIndex:
			return &ir.Node{Kind: ir.SequenceKind}
		case SegmentKey:
			return &ir.Node{Kind: ir.MappingKind}
		}
	}
	if defaultValue == nil {
		return ir.Null()
	}
	return defaultValue.Clone()
}

// segmentNodes matches one path segment against the node behind ref.
func (p *Processor) segmentNodes(ref *NodeRef, path *Path, depth int, traverseLists bool) ([]*NodeRef, error) {
	seg := path.Segments()[depth]

	// Repeated traversal recurses without bound.
	if seg.Type == SegmentTraverse && depth > 0 &&
		path.Segments()[depth-1].Type == SegmentTraverse {
		return nil, pathErrf(path.String(), 0,
			"repeating traversals are not allowed because they expand without adding matches")
	}

	if ref.IsVirtual() {
		switch seg.Type {
		case SegmentCollector:
			// fall through to the collector logic below
		case SegmentIndex:
			return collectedByIndex(ref, seg), nil
		case SegmentSlice:
			return collectedBySlice(ref, path, seg)
		}
	}

	switch seg.Type {
	case SegmentKey:
		return p.nodesByKey(ref, path, depth, seg, traverseLists)
	case SegmentIndex:
		return nodesByIndex(ref, seg), nil
	case SegmentSlice:
		return nodesBySlice(ref, path, seg)
	case SegmentAnchor:
		return nodesByAnchor(ref, seg), nil
	case SegmentMatchAll:
		return p.nodesByMatchAll(ref, path, depth, seg)
	case SegmentTraverse:
		return p.nodesByTraversal(ref, path, depth, seg)
	case SegmentSearch:
		return p.nodesBySearch(ref, seg, traverseLists)
	case SegmentKeywordSearch:
		return p.nodesByKeyword(ref, path, seg)
	case SegmentCollector:
		return p.nodesByCollector(ref, path, depth, seg)
	}
	return nil, pathErrf(path.String(), 0, "unsupported segment type %s", seg.Type)
}

// childByKey builds the reference for one mapping entry.
func childByKey(ref *NodeRef, key string, val *ir.Node, seg *Segment) *NodeRef {
	return newNodeRef(
		val, ref.Node, key, -1, ref.Path.AppendKey(key),
		appendAncestry(ref.ancestry, ref.Node, key, -1), seg)
}

// childByIndex builds the reference for one sequence element.
func childByIndex(ref *NodeRef, idx int, seg *Segment) *NodeRef {
	return newNodeRef(
		ref.Node.Values[idx], ref.Node, "", idx, ref.Path.AppendIndex(idx),
		appendAncestry(ref.ancestry, ref.Node, "", idx), seg)
}

func (p *Processor) nodesByKey(ref *NodeRef, path *Path, depth int, seg *Segment, traverseLists bool) ([]*NodeRef, error) {
	data := ref.Node
	switch data.Kind {
	case ir.MappingKind:
		if i := data.FieldIndex(seg.Key); i >= 0 {
			return []*NodeRef{childByKey(ref, seg.Key, data.Values[i], seg)}, nil
		}
		return nil, nil

	case ir.SequenceKind:
		if idx, err := strconv.Atoi(seg.Key); err == nil {
			if idx >= 0 && idx < len(data.Values) {
				return []*NodeRef{childByIndex(ref, idx, seg)}, nil
			}
			return nil, nil
		}
		if !traverseLists {
			return nil, nil
		}
		// Pass-through search against a possible array of mappings.
		var out []*NodeRef
		for idx := range data.Values {
			elem := childByIndex(ref, idx, seg)
			sub, err := p.segmentNodes(elem, path, depth, true)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	}
	return nil, nil
}

func nodesByIndex(ref *NodeRef, seg *Segment) []*NodeRef {
	data := ref.Node
	if data.Kind != ir.SequenceKind {
		return nil
	}
	idx := seg.Index
	if idx < 0 {
		idx += len(data.Values)
	}
	if idx < 0 || idx >= len(data.Values) {
		return nil
	}
	return []*NodeRef{childByIndex(ref, idx, seg)}
}

// collectedByIndex picks one member of a virtual result, preserving that
// member's real parentage.
func collectedByIndex(ref *NodeRef, seg *Segment) []*NodeRef {
	idx := seg.Index
	if idx < 0 {
		idx += len(ref.Collected)
	}
	if idx < 0 || idx >= len(ref.Collected) {
		return nil
	}
	return []*NodeRef{ref.Collected[idx]}
}

func collectedBySlice(ref *NodeRef, path *Path, seg *Segment) ([]*NodeRef, error) {
	intMin, intMax, err := sliceBounds(path, seg, len(ref.Collected))
	if err != nil {
		return nil, err
	}
	var members []*NodeRef
	for i := intMin; i < intMax && i < len(ref.Collected); i++ {
		if i < 0 {
			continue
		}
		members = append(members, ref.Collected[i])
	}
	virtual := newNodeRef(
		collectedValues(members), nil, "", -1,
		ref.Path.Append(seg), ref.ancestry, seg)
	virtual.Collected = members
	return []*NodeRef{virtual}, nil
}

func sliceBounds(path *Path, seg *Segment, length int) (int, int, error) {
	parse := func(raw string) (int, error) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, pathErrf(path.String(), 0,
				"%s is not an integer sequence slice", seg.Slice)
		}
		return n, nil
	}
	intMin, err := parse(seg.Slice.Min)
	if err != nil {
		return 0, 0, err
	}
	intMax, err := parse(seg.Slice.Max)
	if err != nil {
		return 0, 0, err
	}
	if intMin < 0 {
		intMin += length
	}
	if intMax < 0 {
		intMax += length
	}
	return intMin, intMax, nil
}

func nodesBySlice(ref *NodeRef, path *Path, seg *Segment) ([]*NodeRef, error) {
	data := ref.Node
	switch data.Kind {
	case ir.SequenceKind:
		intMin, intMax, err := sliceBounds(path, seg, len(data.Values))
		if err != nil {
			return nil, err
		}
		if intMin == intMax && intMin >= 0 && intMin < len(data.Values) {
			intMax = intMin + 1
		}
		var members []*NodeRef
		for i := intMin; i < intMax && i < len(data.Values); i++ {
			if i < 0 {
				continue
			}
			members = append(members, childByIndex(ref, i, seg))
		}
		virtual := newNodeRef(
			collectedValues(members), data, "", intMin,
			ref.Path.Append(seg), ref.ancestry, seg)
		virtual.Collected = members
		return []*NodeRef{virtual}, nil

	case ir.MappingKind:
		// Key slices are inclusive of both bounds.
		var out []*NodeRef
		for i, key := range data.Fields {
			if key.String >= seg.Slice.Min && key.String <= seg.Slice.Max {
				out = append(out, childByKey(ref, key.String, data.Values[i], seg))
			}
		}
		return out, nil
	}
	return nil, nil
}

func nodesByAnchor(ref *NodeRef, seg *Segment) []*NodeRef {
	data := ref.Node
	var out []*NodeRef
	switch data.Kind {
	case ir.SequenceKind:
		for idx, ele := range data.Values {
			if ele.Anchor == seg.Anchor {
				out = append(out, childByIndex(ref, idx, seg))
			}
		}
	case ir.MappingKind:
		for i, key := range data.Fields {
			if key.Anchor == seg.Anchor || data.Values[i].Anchor == seg.Anchor {
				out = append(out, childByKey(ref, key.String, data.Values[i], seg))
			}
		}
	}
	return out
}

func (p *Processor) nodesBySearch(ref *NodeRef, seg *Segment, traverseLists bool) ([]*NodeRef, error) {
	data := ref.Node
	terms := seg.Search
	var out []*NodeRef

	switch data.Kind {
	case ir.SequenceKind:
		if !traverseLists {
			return nil, nil
		}
		isAoH := nodeIsAoH(data, true)
		searchValues := terms.Attribute == "."
		for idx, ele := range data.Values {
			var matches bool
			switch {
			case searchValues:
				matches = (isAoH && ele.Kind == ir.MappingKind && ele.FieldIndex(terms.Term) >= 0) ||
					searchTermsMatch(&SearchTerms{Method: terms.Method, Term: terms.Term, Regexp: terms.Regexp}, ele)
			case ele.Kind == ir.MappingKind && ele.FieldIndex(terms.Attribute) >= 0:
				matches = searchTermsMatch(
					&SearchTerms{Method: terms.Method, Term: terms.Term, Regexp: terms.Regexp},
					ir.Get(ele, terms.Attribute))
			default:
				// Descendant search against this element.
				descendant, err := p.descendantMatches(childByIndex(ref, idx, seg), terms)
				if err != nil {
					return nil, err
				}
				matches = descendant
			}
			if (matches && !terms.Inverted) || (terms.Inverted && !matches) {
				out = append(out, childByIndex(ref, idx, seg))
			}
		}

	case ir.MappingKind:
		if terms.Attribute == "." {
			// Match each key's name.
			for i, key := range data.Fields {
				matches := searchTermsMatch(
					&SearchTerms{Method: terms.Method, Term: terms.Term, Regexp: terms.Regexp}, key)
				if (matches && !terms.Inverted) || (terms.Inverted && !matches) {
					out = append(out, childByKey(ref, key.String, data.Values[i], seg))
				}
			}
			return out, nil
		}
		if i := data.FieldIndex(terms.Attribute); i >= 0 {
			matches := searchTermsMatch(
				&SearchTerms{Method: terms.Method, Term: terms.Term, Regexp: terms.Regexp},
				data.Values[i])
			if (matches && !terms.Inverted) || (terms.Inverted && !matches) {
				out = append(out, childByKey(ref, terms.Attribute, data.Values[i], seg))
			}
			return out, nil
		}
		// Yield the mapping itself when any descendant matches.
		matches, err := p.descendantMatches(ref, terms)
		if err != nil {
			return nil, err
		}
		if (matches && !terms.Inverted) || (terms.Inverted && !matches) {
			out = append(out, ref)
		}

	default:
		matches := searchTermsMatch(
			&SearchTerms{Method: terms.Method, Term: terms.Term, Regexp: terms.Regexp}, data)
		if (matches && !terms.Inverted) || (terms.Inverted && !matches) {
			out = append(out, ref)
		}
	}
	return out, nil
}

// descendantMatches evaluates the search attribute as a relative path and
// reports whether the first node it addresses matches the terms.
func (p *Processor) descendantMatches(ref *NodeRef, terms *SearchTerms) (bool, error) {
	descPath, err := Parse(terms.Attribute)
	if err != nil {
		return false, err
	}
	found, err := p.getRequiredNodes(ref, descPath, 0, true)
	if err != nil {
		return false, err
	}
	for _, desc := range found {
		return searchTermsMatch(
			&SearchTerms{Method: terms.Method, Term: terms.Term, Regexp: terms.Regexp},
			desc.Node), nil
	}
	return false, nil
}

func (p *Processor) nodesByMatchAll(ref *NodeRef, path *Path, depth int, seg *Segment) ([]*NodeRef, error) {
	data := ref.Node
	filtered := depth+1 < path.Len()
	var out []*NodeRef

	if !filtered {
		// Terminal wildcard: every immediate child.
		switch data.Kind {
		case ir.MappingKind:
			for i, key := range data.Fields {
				out = append(out, childByKey(ref, key.String, data.Values[i], seg))
			}
		case ir.SequenceKind:
			for idx := range data.Values {
				out = append(out, childByIndex(ref, idx, seg))
			}
		}
		return out, nil
	}

	// Filtered wildcard: yield children whose own children match the next
	// segment. The caller re-evaluates that segment against each yield.
	switch data.Kind {
	case ir.MappingKind:
		for i, key := range data.Fields {
			child := childByKey(ref, key.String, data.Values[i], seg)
			sub, err := p.segmentNodes(child, path, depth+1, true)
			if err != nil {
				return nil, err
			}
			if len(sub) > 0 {
				out = append(out, child)
			}
		}
	case ir.SequenceKind:
		for idx := range data.Values {
			child := childByIndex(ref, idx, seg)
			sub, err := p.segmentNodes(child, path, depth+1, true)
			if err != nil {
				return nil, err
			}
			if len(sub) > 0 {
				out = append(out, child)
			}
		}
	}
	return out, nil
}

func (p *Processor) nodesByTraversal(ref *NodeRef, path *Path, depth int, seg *Segment) ([]*NodeRef, error) {
	data := ref.Node
	terminal := depth+1 >= path.Len()

	if terminal {
		// Gather every leaf beneath this node, nulls included.
		if data.Kind.IsScalar() {
			return []*NodeRef{ref}, nil
		}
		var out []*NodeRef
		switch data.Kind {
		case ir.MappingKind:
			for i, key := range data.Fields {
				sub, err := p.nodesByTraversal(
					childByKey(ref, key.String, data.Values[i], seg), path, depth, seg)
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
			}
		case ir.SequenceKind:
			for idx := range data.Values {
				sub, err := p.nodesByTraversal(childByIndex(ref, idx, seg), path, depth, seg)
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
			}
		}
		return out, nil
	}

	// Filtered traversal: yield this node when it directly matches the next
	// segment; the caller resumes normal matching against each yield. Then
	// do the same test for every descendant.
	var out []*NodeRef
	direct, err := p.segmentNodes(ref, path, depth+1, false)
	if err != nil {
		return nil, err
	}
	if len(direct) > 0 {
		out = append(out, ref)
	}
	switch data.Kind {
	case ir.MappingKind:
		for i, key := range data.Fields {
			sub, err := p.nodesByTraversal(
				childByKey(ref, key.String, data.Values[i], seg), path, depth, seg)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	case ir.SequenceKind:
		for idx := range data.Values {
			sub, err := p.nodesByTraversal(childByIndex(ref, idx, seg), path, depth, seg)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

func (p *Processor) nodesByCollector(ref *NodeRef, path *Path, depth int, seg *Segment) ([]*NodeRef, error) {
	terms := seg.Collector
	if terms.Op != CollectorNone {
		// Operated collectors were consumed by their predecessor; relay
		// the incoming result untouched.
		return []*NodeRef{ref}, nil
	}

	exprPath := terms.Path()
	if exprPath == nil {
		parsed, err := Parse(terms.Expression)
		if err != nil {
			return nil, err
		}
		exprPath = parsed
	}
	members, err := p.getRequiredNodes(ref, exprPath, 0, true)
	if err != nil {
		return nil, err
	}

	// A lone sequence result is flattened so collector syntax does not
	// require a trailing [0] in common use.
	if len(members) == 1 && !members[0].IsVirtual() &&
		members[0].Node.Kind == ir.SequenceKind {
		only := members[0]
		flat := make([]*NodeRef, 0, len(only.Node.Values))
		for idx := range only.Node.Values {
			flat = append(flat, childByIndex(only, idx, seg))
		}
		members = flat
	}

	// Consume every following addition or subtraction collector.
	for peek := depth + 1; peek < path.Len(); peek++ {
		peekSeg := path.Segments()[peek]
		if peekSeg.Type != SegmentCollector {
			break
		}
		peekPath, err := Parse(peekSeg.Collector.Expression)
		if err != nil {
			return nil, err
		}
		switch peekSeg.Collector.Op {
		case CollectorAddition:
			members, err = p.collectorAddition(ref, peekPath, members)
		case CollectorSubtraction:
			members, err = p.collectorSubtraction(ref, peekPath, members)
		case CollectorIntersection:
			members, err = p.collectorIntersection(ref, peekPath, members)
		default:
			return nil, pathErrf(path.String(), 0,
				"adjoining collectors without an operator have no meaning; try + or - between them")
		}
		if err != nil {
			return nil, err
		}
	}

	if len(members) == 0 {
		return nil, nil
	}
	virtual := newNodeRef(
		collectedValues(members), nil, "", -1,
		ref.Path.Append(seg), ref.ancestry, seg)
	virtual.Collected = members
	return []*NodeRef{virtual}, nil
}

func (p *Processor) collectorAddition(ref *NodeRef, peekPath *Path, members []*NodeRef) ([]*NodeRef, error) {
	found, err := p.getRequiredNodes(ref, peekPath, 0, true)
	if err != nil {
		return nil, err
	}
	for _, add := range found {
		if !add.IsVirtual() && add.Node.Kind == ir.SequenceKind {
			for idx := range add.Node.Values {
				members = append(members, childByIndex(add, idx, add.Segment()))
			}
			continue
		}
		if add.IsVirtual() {
			members = append(members, add.Collected...)
			continue
		}
		members = append(members, add)
	}
	return members, nil
}

func (p *Processor) collectorSubtraction(ref *NodeRef, peekPath *Path, members []*NodeRef) ([]*NodeRef, error) {
	found, err := p.getRequiredNodes(ref, peekPath, 0, true)
	if err != nil {
		return nil, err
	}
	remove := flattenForComparison(found)
	var kept []*NodeRef
	for _, member := range members {
		excluded := false
		for _, rem := range remove {
			if ir.Equal(member.Node, rem) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, member)
		}
	}
	return kept, nil
}

func (p *Processor) collectorIntersection(ref *NodeRef, peekPath *Path, members []*NodeRef) ([]*NodeRef, error) {
	found, err := p.getRequiredNodes(ref, peekPath, 0, true)
	if err != nil {
		return nil, err
	}
	keep := flattenForComparison(found)
	var kept []*NodeRef
	for _, member := range members {
		for _, want := range keep {
			if ir.Equal(member.Node, want) {
				kept = append(kept, member)
				break
			}
		}
	}
	return kept, nil
}

// flattenForComparison expands virtual results and sequence values into the
// individual nodes used for collector set arithmetic.
func flattenForComparison(refs []*NodeRef) []*ir.Node {
	var out []*ir.Node
	for _, ref := range refs {
		switch {
		case ref.IsVirtual():
			out = append(out, flattenForComparison(ref.Collected)...)
		case ref.Node.Kind == ir.SequenceKind:
			out = append(out, ref.Node.Values...)
		default:
			out = append(out, ref.Node)
		}
	}
	return out
}

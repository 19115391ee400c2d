package ir

import "strconv"

// ScanAnchors collects every anchored node in document order, keyed by anchor
// name. The first occurrence wins; with pointer-shared aliases later
// occurrences are the same node anyway.
func ScanAnchors(doc *Node) map[string]*Node {
	res := map[string]*Node{}
	_ = doc.Visit(func(y *Node, isPost bool) (bool, error) {
		if isPost {
			return false, nil
		}
		if y.Anchor != "" {
			if _, ok := res[y.Anchor]; !ok {
				res[y.Anchor] = y
			}
		}
		return true, nil
	})
	return res
}

// UniqueAnchorName derives a name not present in known, appending _1, _2 and
// so on to base until the name is free.
func UniqueAnchorName(base string, known map[string]*Node) string {
	name := base
	for i := 1; ; i++ {
		if _, taken := known[name]; !taken {
			return name
		}
		name = base + "_" + strconv.Itoa(i)
	}
}

// RenameAnchor changes the anchor name on every occurrence of old in doc.
// Because aliases share the node, setting the name once covers all sites;
// the scan only confirms the anchor exists.
func RenameAnchor(doc *Node, old, new string) bool {
	node, ok := ScanAnchors(doc)[old]
	if !ok {
		return false
	}
	node.Anchor = new
	return true
}

// ReplaceNode swaps every pointer occurrence of old in doc for new. Mapping
// keys and values are both covered. Shared containers are descended once.
func ReplaceNode(doc *Node, old, new *Node) {
	replaceNode(doc, old, new, map[*Node]bool{})
}

func replaceNode(doc, old, new *Node, seen map[*Node]bool) {
	if doc == nil || doc == old || seen[doc] {
		return
	}
	seen[doc] = true
	for i := range doc.Fields {
		if doc.Fields[i] == old {
			doc.Fields[i] = new
		} else {
			replaceNode(doc.Fields[i], old, new, seen)
		}
	}
	for i := range doc.Values {
		if doc.Values[i] == old {
			doc.Values[i] = new
		} else {
			replaceNode(doc.Values[i], old, new, seen)
		}
	}
}

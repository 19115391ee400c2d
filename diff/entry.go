package diff

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wwkimball/yamlpath"
	"github.com/wwkimball/yamlpath/ir"
)

// Action is the edit that turns the left document into the right one.
type Action int

const (
	Add Action = iota
	Change
	Delete
	Same
)

func (a Action) String() string {
	switch a {
	case Add:
		return "a"
	case Change:
		return "c"
	case Delete:
		return "d"
	case Same:
		return "s"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Entry is one reported difference. LHS is nil for Add, RHS is nil for
// Delete, and both are set for Change and Same.
type Entry struct {
	Action Action
	Path   *yamlpath.Path
	LHS    *ir.Node
	RHS    *ir.Node
}

// String renders the entry in the report form: the action and path on one
// line, then the affected values prefixed "<" for left and ">" for right.
func (e *Entry) String() string {
	var b strings.Builder
	loc := "-"
	if e.Path != nil && !e.Path.IsRoot() {
		loc = e.Path.String()
	}
	fmt.Fprintf(&b, "%s %s\n", e.Action, loc)
	switch e.Action {
	case Add:
		b.WriteString(presentNode(e.RHS, ">"))
	case Delete:
		b.WriteString(presentNode(e.LHS, "<"))
	case Change:
		b.WriteString(presentNode(e.LHS, "<"))
		b.WriteString("\n---\n")
		b.WriteString(presentNode(e.RHS, ">"))
	default:
		b.WriteString(presentNode(e.LHS, "="))
	}
	return b.String()
}

// presentNode renders node one line per value line, each prefixed.
func presentNode(node *ir.Node, prefix string) string {
	text := "null"
	if node != nil {
		switch node.Kind {
		case ir.MappingKind, ir.SequenceKind:
			if data, err := json.Marshal(node); err == nil {
				text = string(data)
			}
		default:
			text = node.ScalarString()
		}
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + " " + line
	}
	return strings.Join(lines, "\n")
}

package diff

import (
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/wwkimball/yamlpath/ir"
)

// Detail renders a character-level view of a changed multiline string,
// with deleted runs wrapped in [-...-] and inserted runs in {+...+}.
// It returns "" for entries where that view does not apply.
func (e *Entry) Detail() string {
	if e.Action != Change || !isMultilineString(e.LHS) || !isMultilineString(e.RHS) {
		return ""
	}
	return renderStringDiff(e.LHS.String, e.RHS.String)
}

func isMultilineString(node *ir.Node) bool {
	return node != nil && node.Kind == ir.StringKind &&
		strings.Contains(node.String, "\n")
}

func renderStringDiff(from, to string) string {
	diffCfg := diffpatch.New()
	diffs := diffCfg.DiffMain(from, to, true)
	diffs = diffCfg.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for i := range diffs {
		diff := &diffs[i]
		switch diff.Type {
		case diffpatch.DiffDelete:
			b.WriteString("[-")
			b.WriteString(diff.Text)
			b.WriteString("-]")
		case diffpatch.DiffInsert:
			b.WriteString("{+")
			b.WriteString(diff.Text)
			b.WriteString("+}")
		default:
			b.WriteString(diff.Text)
		}
	}
	return b.String()
}

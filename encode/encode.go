package encode

import (
	"io"
	"strconv"
	"strings"

	"github.com/wwkimball/yamlpath/ir"
)

// EncState carries emitter position and option state through one document.
type EncState struct {
	indent int
	depth  int

	// anchored nodes already emitted; later occurrences become *name refs
	seen map[*ir.Node]bool

	Color func(ir.Kind, ColorAttr, string) string
}

// Encode writes node to w as block-style YAML followed by a trailing newline.
func Encode(node *ir.Node, w io.Writer, opts ...EncodeOption) error {
	es := &EncState{indent: 2, seen: map[*ir.Node]bool{}}
	for _, opt := range opts {
		opt(es)
	}
	if node == nil {
		return writeString(w, "null\n")
	}

	pfx := es.notePrefix(node)
	switch {
	case node.Kind == ir.MappingKind && len(node.Fields) > 0:
		if pfx != "" {
			if err := writeString(w, pfx); err != nil {
				return err
			}
			if err := encodeMapping(node, w, es, false); err != nil {
				return err
			}
		} else if err := encodeMapping(node, w, es, true); err != nil {
			return err
		}
	case node.Kind == ir.SequenceKind && len(node.Values) > 0:
		if pfx != "" {
			if err := writeString(w, pfx); err != nil {
				return err
			}
			if err := encodeSequence(node, w, es, false); err != nil {
				return err
			}
		} else if err := encodeSequence(node, w, es, true); err != nil {
			return err
		}
	default:
		if err := writeString(w, joinPrefix(pfx, es.renderLeaf(node))); err != nil {
			return err
		}
	}
	return writeString(w, "\n")
}

func writeString(w io.Writer, s string) error {
	_, err := w.Write([]byte(s))
	return err
}

func writeNL(w io.Writer, es *EncState) error {
	return writeString(w, "\n"+strings.Repeat(" ", es.indent*es.depth))
}

// aliasRef reports the *name spelling when node already went out under an
// anchor.
func (es *EncState) aliasRef(node *ir.Node) (string, bool) {
	if node.Anchor != "" && es.seen[node] {
		return "*" + node.Anchor, true
	}
	return "", false
}

// notePrefix renders node's anchor and tag markers and records the anchor as
// emitted.
func (es *EncState) notePrefix(node *ir.Node) string {
	parts := []string{}
	if node.Anchor != "" {
		es.seen[node] = true
		parts = append(parts, es.color(node.Kind, AnchorColor, "&"+node.Anchor))
	}
	if node.Tag != "" {
		parts = append(parts, es.color(node.Kind, TagColor, node.Tag))
	}
	return strings.Join(parts, " ")
}

func joinPrefix(pfx, v string) string {
	if pfx == "" {
		return v
	}
	return pfx + " " + v
}

func (es *EncState) color(kind ir.Kind, attr ColorAttr, s string) string {
	if es.Color == nil {
		return s
	}
	return es.Color(kind, attr, s)
}

func (es *EncState) renderLeaf(node *ir.Node) string {
	switch node.Kind {
	case ir.MappingKind:
		return es.color(node.Kind, SepColor, "{}")
	case ir.SequenceKind:
		return es.color(node.Kind, SepColor, "[]")
	case ir.StringKind:
		return es.color(node.Kind, ValueColor, maybeQuote(node.String))
	default:
		return es.color(node.Kind, ValueColor, node.ScalarString())
	}
}

// emitValue writes node in a value position. lead separates it from what is
// already on the line: " " after a mapping key's colon, "" after a sequence
// dash. Sequence elements continue compactly on the dash line; mapping values
// that are non-empty containers start on the next line, one level deeper.
func emitValue(node *ir.Node, w io.Writer, es *EncState, lead string) error {
	if ref, ok := es.aliasRef(node); ok {
		return writeString(w, lead+es.color(node.Kind, AliasColor, ref))
	}
	pfx := es.notePrefix(node)

	isLeaf := node.Kind != ir.MappingKind && node.Kind != ir.SequenceKind ||
		len(node.Fields) == 0 && len(node.Values) == 0
	if isLeaf {
		return writeString(w, lead+joinPrefix(pfx, es.renderLeaf(node)))
	}

	if pfx != "" {
		if err := writeString(w, lead+pfx); err != nil {
			return err
		}
	}
	compact := lead == "" && pfx == ""
	es.depth++
	defer func() { es.depth-- }()
	if node.Kind == ir.MappingKind {
		return encodeMapping(node, w, es, compact)
	}
	return encodeSequence(node, w, es, compact)
}

func encodeMapping(node *ir.Node, w io.Writer, es *EncState, inline bool) error {
	for i, field := range node.Fields {
		if !(inline && i == 0) {
			if err := writeNL(w, es); err != nil {
				return err
			}
		}
		key := es.color(ir.MappingKind, FieldColor, maybeQuote(field.String))
		if err := writeString(w, key+es.color(ir.MappingKind, SepColor, ":")); err != nil {
			return err
		}
		if err := emitValue(node.Values[i], w, es, " "); err != nil {
			return err
		}
	}
	return nil
}

func encodeSequence(node *ir.Node, w io.Writer, es *EncState, inline bool) error {
	for i, v := range node.Values {
		if !(inline && i == 0) {
			if err := writeNL(w, es); err != nil {
				return err
			}
		}
		if err := writeString(w, es.color(ir.SequenceKind, SepColor, "-")+" "); err != nil {
			return err
		}
		if err := emitValue(v, w, es, ""); err != nil {
			return err
		}
	}
	return nil
}

func maybeQuote(s string) string {
	if needsQuote(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "null", "~", "true", "false", "yes", "no", "on", "off":
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	if strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`,\n\t") {
		return true
	}
	if s != strings.TrimSpace(s) {
		return true
	}
	return s == "-" || strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "? ")
}

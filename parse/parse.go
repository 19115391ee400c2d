package parse

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/wwkimball/yamlpath/ir"
)

// Parse loads the first document in d. Empty input yields a nil node.
func Parse(d []byte, opts ...ParseOption) (*ir.Node, error) {
	docs, err := ParseAll(d, opts...)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// ParseAll loads every document in d.
func ParseAll(d []byte, opts ...ParseOption) ([]*ir.Node, error) {
	pOpts := &parseOpts{}
	for _, f := range opts {
		f(pOpts)
	}
	file, err := parser.ParseBytes(d, 0)
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	var docs []*ir.Node
	for _, doc := range file.Docs {
		if doc.Body == nil {
			continue
		}
		c := &converter{anchors: map[string]*ir.Node{}, opts: pOpts}
		node, err := c.convert(doc.Body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, node)
	}
	return docs, nil
}

type converter struct {
	anchors map[string]*ir.Node
	opts    *parseOpts
}

func (c *converter) convert(n ast.Node) (*ir.Node, error) {
	switch n := n.(type) {
	case *ast.MappingNode:
		out := &ir.Node{Kind: ir.MappingKind}
		for _, mv := range n.Values {
			if err := c.convertPair(out, mv); err != nil {
				return nil, err
			}
		}
		return out, nil

	case *ast.MappingValueNode:
		// A single-pair mapping parses as a bare mapping value.
		out := &ir.Node{Kind: ir.MappingKind}
		if err := c.convertPair(out, n); err != nil {
			return nil, err
		}
		return out, nil

	case *ast.SequenceNode:
		out := &ir.Node{Kind: ir.SequenceKind}
		for _, ele := range n.Values {
			val, err := c.convert(ele)
			if err != nil {
				return nil, err
			}
			out.Append(val)
		}
		return out, nil

	case *ast.AnchorNode:
		name := n.Name.GetToken().Value
		val, err := c.convert(n.Value)
		if err != nil {
			return nil, err
		}
		val.Anchor = name
		c.anchors[name] = val
		return val, nil

	case *ast.AliasNode:
		name := n.Value.GetToken().Value
		target, ok := c.anchors[name]
		if !ok {
			return nil, c.errorAt(n, fmt.Sprintf("alias *%s has no matching anchor", name))
		}
		return target, nil

	case *ast.TagNode:
		val, err := c.convert(n.Value)
		if err != nil {
			return nil, err
		}
		val.Tag = n.Start.Value
		return val, nil

	case *ast.StringNode:
		return ir.FromString(n.Value), nil

	case *ast.LiteralNode:
		return ir.FromString(n.Value.Value), nil

	case *ast.IntegerNode:
		raw := n.GetToken().Value
		if i, err := strconv.ParseInt(raw, 0, 64); err == nil {
			return ir.FromInt(i), nil
		}
		return &ir.Node{Kind: ir.NumberKind, Number: raw}, nil

	case *ast.FloatNode:
		return ir.FromFloat(n.Value), nil

	case *ast.BoolNode:
		return ir.FromBool(n.Value), nil

	case *ast.NullNode:
		return ir.Null(), nil

	case *ast.InfinityNode:
		return ir.FromFloat(n.Value), nil

	case *ast.NanNode:
		return ir.FromFloat(math.NaN()), nil

	case *ast.MergeKeyNode:
		return nil, c.errorAt(n, "merge keys (<<) are not supported")
	}
	return nil, c.errorAt(n, fmt.Sprintf("unsupported YAML construct %T", n))
}

func (c *converter) convertPair(out *ir.Node, mv *ast.MappingValueNode) error {
	keyNode, keyStr, err := c.convertKey(mv.Key)
	if err != nil {
		return err
	}
	val, err := c.convert(mv.Value)
	if err != nil {
		return err
	}
	if i := out.FieldIndex(keyStr); i >= 0 {
		if !c.opts.lastKeyWins {
			return c.errorAt(mv.Key, fmt.Sprintf("duplicate mapping key %q", keyStr))
		}
		out.Values[i] = val
		return nil
	}
	out.Fields = append(out.Fields, keyNode)
	out.Values = append(out.Values, val)
	return nil
}

func (c *converter) convertKey(key ast.MapKeyNode) (*ir.Node, string, error) {
	switch k := key.(type) {
	case *ast.MergeKeyNode:
		return nil, "", c.errorAt(key, "merge keys (<<) are not supported")

	case *ast.AnchorNode:
		name := k.Name.GetToken().Value
		inner, ok := k.Value.(ast.MapKeyNode)
		if !ok {
			return nil, "", c.errorAt(key, "unsupported anchored mapping key")
		}
		keyNode, keyStr, err := c.convertKey(inner)
		if err != nil {
			return nil, "", err
		}
		keyNode.Anchor = name
		c.anchors[name] = keyNode
		return keyNode, keyStr, nil

	case *ast.AliasNode:
		name := k.Value.GetToken().Value
		target, ok := c.anchors[name]
		if !ok {
			return nil, "", c.errorAt(key, fmt.Sprintf("alias *%s has no matching anchor", name))
		}
		return target, target.String, nil

	case *ast.StringNode:
		return ir.FromString(k.Value), k.Value, nil
	}

	// Non-string scalar keys are carried as their source text.
	raw := key.GetToken().Value
	return ir.FromString(raw), raw, nil
}

func (c *converter) errorAt(n ast.Node, msg string) error {
	e := &ParseError{Msg: msg}
	if tok := n.GetToken(); tok != nil && tok.Position != nil {
		e.Line = tok.Position.Line
		e.Col = tok.Position.Column
	}
	return e
}

package ir

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Node is a single value in a YAML document tree. Mappings keep Fields[i] as
// the key for Values[i]; sequences use Values alone. Aliases are represented
// by pointer sharing: an anchored node appears once per `&name` and the same
// *Node is present at every `*name` site. Node identity is pointer identity.
type Node struct {
	Kind   Kind
	Anchor string
	Tag    string

	Fields []*Node
	Values []*Node

	String  string
	Bool    bool
	Number  string
	Float64 *float64
	Int64   *int64
}

func (y *Node) WithAnchor(name string) *Node {
	y.Anchor = name
	return y
}

func (y *Node) WithTag(tag string) *Node {
	y.Tag = tag
	return y
}

// Clone deep-copies the tree. Shared subtrees (aliases) stay shared in the
// copy, so anchor semantics survive cloning.
func (y *Node) Clone() *Node {
	return y.cloneMemo(map[*Node]*Node{})
}

func (y *Node) cloneMemo(seen map[*Node]*Node) *Node {
	if y == nil {
		return nil
	}
	if dst, ok := seen[y]; ok {
		return dst
	}
	dst := &Node{
		Kind:   y.Kind,
		Anchor: y.Anchor,
		Tag:    y.Tag,
		String: y.String,
		Bool:   y.Bool,
		Number: y.Number,
	}
	seen[y] = dst
	if y.Float64 != nil {
		f := *y.Float64
		dst.Float64 = &f
	}
	if y.Int64 != nil {
		i := *y.Int64
		dst.Int64 = &i
	}
	if y.Fields != nil {
		dst.Fields = make([]*Node, len(y.Fields))
		for i, yf := range y.Fields {
			dst.Fields[i] = yf.cloneMemo(seen)
		}
	}
	if y.Values != nil {
		dst.Values = make([]*Node, len(y.Values))
		for i, yv := range y.Values {
			dst.Values[i] = yv.cloneMemo(seen)
		}
	}
	return dst
}

// CopyInto overwrites dst's value in place with src's, keeping dst's pointer
// identity and anchor name. Alias sites of dst observe the new value.
func CopyInto(dst, src *Node) {
	anchor := dst.Anchor
	*dst = *src
	dst.Anchor = anchor
}

func FromString(v string) *Node {
	return &Node{Kind: StringKind, String: v}
}

func FromInt(v int64) *Node {
	return &Node{Kind: NumberKind, Int64: &v}
}

func FromFloat(f float64) *Node {
	return &Node{Kind: NumberKind, Float64: &f}
}

func FromBool(v bool) *Node {
	return &Node{Kind: BoolKind, Bool: v}
}

func Null() *Node {
	return &Node{Kind: NullKind}
}

// FromScalar types a raw YAML scalar token: null forms, booleans, integers
// and floats resolve to their kinds, anything else stays a string.
func FromScalar(v string) *Node {
	switch v {
	case "", "~", "null", "Null", "NULL":
		return Null()
	case "true", "True", "TRUE":
		return FromBool(true)
	case "false", "False", "FALSE":
		return FromBool(false)
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return FromInt(i)
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return FromFloat(f)
	}
	return FromString(v)
}

func FromMap(m map[string]*Node) *Node {
	res := &Node{Kind: MappingKind}
	keys := slices.Sorted(maps.Keys(m))
	res.Fields = make([]*Node, len(keys))
	res.Values = make([]*Node, len(keys))
	for i, key := range keys {
		res.Fields[i] = FromString(key)
		res.Values[i] = m[key]
	}
	return res
}

type KeyVal struct {
	Key *Node
	Val *Node
}

func FromKeyVals(kvs []KeyVal) *Node {
	res := &Node{Kind: MappingKind}
	res.Fields = make([]*Node, len(kvs))
	res.Values = make([]*Node, len(kvs))
	for i := range kvs {
		kv := &kvs[i]
		if kv.Key == nil {
			kv.Key = Null()
		}
		res.Fields[i] = kv.Key
		res.Values[i] = kv.Val
	}
	return res
}

func FromSlice(vals []*Node) *Node {
	res := &Node{Kind: SequenceKind}
	res.Values = append(res.Values, vals...)
	return res
}

func ToMap(node *Node) map[string]*Node {
	if node == nil || node.Kind != MappingKind {
		return nil
	}
	res := make(map[string]*Node, len(node.Fields))
	for i := range node.Fields {
		res[node.Fields[i].String] = node.Values[i]
	}
	return res
}

// Get returns the mapping value under field, or nil.
func Get(y *Node, field string) *Node {
	if y == nil {
		return nil
	}
	n := len(y.Fields)
	for i := range n {
		if y.Fields[i].String == field {
			return y.Values[i]
		}
	}
	return nil
}

// FieldIndex returns the index of field in a mapping, or -1.
func (y *Node) FieldIndex(field string) int {
	for i := range y.Fields {
		if y.Fields[i].String == field {
			return i
		}
	}
	return -1
}

// SetField replaces the value under field, appending the pair when absent.
func (y *Node) SetField(field string, val *Node) {
	if i := y.FieldIndex(field); i >= 0 {
		y.Values[i] = val
		return
	}
	y.Fields = append(y.Fields, FromString(field))
	y.Values = append(y.Values, val)
}

// InsertField places the pair at index i, shifting later pairs right.
func (y *Node) InsertField(i int, key, val *Node) {
	y.Fields = slices.Insert(y.Fields, i, key)
	y.Values = slices.Insert(y.Values, i, val)
}

// RemoveField drops the mapping pair at index i.
func (y *Node) RemoveField(i int) {
	y.Fields = slices.Delete(y.Fields, i, i+1)
	y.Values = slices.Delete(y.Values, i, i+1)
}

// RemoveValue drops the sequence element at index i.
func (y *Node) RemoveValue(i int) {
	y.Values = slices.Delete(y.Values, i, i+1)
}

func (y *Node) Append(val *Node) {
	y.Values = append(y.Values, val)
}

// Visit walks the tree pre- and post-order. f is called with isPost=false
// before children and isPost=true after; returning dive=false skips children.
// Mapping keys are visited before their values. Shared nodes are visited at
// every occurrence, so callers walking aliased documents track seen nodes.
// A node already on the current descent path is not re-entered, so walks over
// cyclic graphs terminate.
func (y *Node) Visit(f func(y *Node, isPost bool) (bool, error)) error {
	return y.visit(f, map[*Node]bool{})
}

func (y *Node) visit(f func(y *Node, isPost bool) (bool, error), onPath map[*Node]bool) error {
	dive, err := f(y, false)
	if err != nil {
		return err
	}
	if dive && !onPath[y] {
		onPath[y] = true
		if y.Kind == MappingKind {
			for i := range y.Fields {
				if err := y.Fields[i].visit(f, onPath); err != nil {
					return err
				}
				if err := y.Values[i].visit(f, onPath); err != nil {
					return err
				}
			}
		} else {
			for _, yy := range y.Values {
				if err := yy.visit(f, onPath); err != nil {
					return err
				}
			}
		}
		delete(onPath, y)
	}
	if _, err := f(y, true); err != nil {
		return err
	}
	return nil
}

// ScalarValue returns the Go value of a scalar node: nil, bool, int64,
// float64, or string. Containers return nil.
func (y *Node) ScalarValue() any {
	switch y.Kind {
	case BoolKind:
		return y.Bool
	case NumberKind:
		if y.Int64 != nil {
			return *y.Int64
		}
		if y.Float64 != nil {
			return *y.Float64
		}
		return y.Number
	case StringKind:
		return y.String
	}
	return nil
}

// ScalarString renders a scalar node the way it compares and displays.
func (y *Node) ScalarString() string {
	switch y.Kind {
	case NullKind:
		return "null"
	case BoolKind:
		return strconv.FormatBool(y.Bool)
	case NumberKind:
		if y.Int64 != nil {
			return strconv.FormatInt(*y.Int64, 10)
		}
		if y.Float64 != nil {
			return strconv.FormatFloat(*y.Float64, 'g', -1, 64)
		}
		return y.Number
	case StringKind:
		return y.String
	}
	return ""
}

// AsFloat reports the node's numeric value when it has one, including string
// nodes whose text parses as a number.
func (y *Node) AsFloat() (float64, bool) {
	switch y.Kind {
	case NumberKind:
		if y.Int64 != nil {
			return float64(*y.Int64), true
		}
		if y.Float64 != nil {
			return *y.Float64, true
		}
		f, err := strconv.ParseFloat(y.Number, 64)
		return f, err == nil
	case StringKind:
		s := strings.TrimSpace(y.String)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case BoolKind:
		if y.Bool {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

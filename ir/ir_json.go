package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// MarshalJSON renders the node as plain JSON data. Aliases are expanded at
// every site; anchors and tags are dropped because JSON has no spelling for
// them. Mapping key order is preserved.
func (y *Node) MarshalJSON() ([]byte, error) {
	if y == nil {
		return []byte("null"), nil
	}
	switch y.Kind {
	case NullKind:
		return []byte("null"), nil
	case BoolKind:
		return json.Marshal(y.Bool)
	case StringKind:
		return json.Marshal(y.String)
	case NumberKind:
		if y.Int64 != nil {
			return json.Marshal(*y.Int64)
		}
		if y.Float64 != nil {
			f := *y.Float64
			if math.IsNaN(f) || math.IsInf(f, 0) {
				// JSON has no encoding for these; fall back to their text
				return json.Marshal(y.ScalarString())
			}
			return json.Marshal(f)
		}
		if json.Valid([]byte(y.Number)) {
			return []byte(y.Number), nil
		}
		return json.Marshal(y.Number)
	case SequenceKind:
		buf := bytes.NewBufferString("[")
		for i, v := range y.Values {
			if i > 0 {
				buf.WriteByte(',')
			}
			d, err := v.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(d)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case MappingKind:
		buf := bytes.NewBufferString("{")
		for i, f := range y.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.String)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			d, err := y.Values[i].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(d)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("cannot marshal node of kind %s", y.Kind)
}

// UnmarshalJSON builds a node tree from JSON data, preserving object key
// order and raw number text.
func (y *Node) UnmarshalJSON(d []byte) error {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	node, err := decodeJSONValue(dec)
	if err != nil {
		return err
	}
	*y = *node
	return nil
}

func decodeJSONValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			node := &Node{Kind: MappingKind}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				node.Fields = append(node.Fields, FromString(key))
				node.Values = append(node.Values, val)
			}
			_, err := dec.Token() // consume '}'
			return node, err
		case '[':
			node := &Node{Kind: SequenceKind}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				node.Values = append(node.Values, val)
			}
			_, err := dec.Token() // consume ']'
			return node, err
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return FromString(t), nil
	case bool:
		return FromBool(t), nil
	case json.Number:
		node := &Node{Kind: NumberKind, Number: t.String()}
		if i, err := t.Int64(); err == nil {
			node.Int64 = &i
		} else if f, err := t.Float64(); err == nil {
			node.Float64 = &f
		}
		return node, nil
	case nil:
		return Null(), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

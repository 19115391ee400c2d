package encode

import (
	"encoding/json"
	"io"

	"github.com/wwkimball/yamlpath/ir"
)

// EncodeJSON writes node to w as indented JSON. Aliases are expanded at each
// site; anchors and tags are dropped.
func EncodeJSON(node *ir.Node, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(node)
}

// JSONString renders node as compact single-line JSON.
func JSONString(node *ir.Node) (string, error) {
	d, err := json.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(d), nil
}

package diff

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/wwkimball/yamlpath/ir"
	"github.com/wwkimball/yamlpath/parse"
)

// CreateMergePatch renders the difference between two documents as an
// RFC 7386 JSON merge patch. Aliases are expanded in the output.
func CreateMergePatch(lhs, rhs *ir.Node) ([]byte, error) {
	lhsJSON, err := json.Marshal(lhs)
	if err != nil {
		return nil, err
	}
	rhsJSON, err := json.Marshal(rhs)
	if err != nil {
		return nil, err
	}
	return jsonpatch.CreateMergePatch(lhsJSON, rhsJSON)
}

// ApplyMergePatch applies an RFC 7386 merge patch to doc and returns the
// patched document. doc is not modified.
func ApplyMergePatch(doc *ir.Node, patch []byte) (*ir.Node, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out, err := jsonpatch.MergePatch(docJSON, patch)
	if err != nil {
		return nil, err
	}
	return parse.Parse(out)
}

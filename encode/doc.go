// Package encode renders IR nodes as block-style YAML or as JSON.
//
// YAML output re-emits each anchored node as `&name value` on its first
// in-document-order occurrence and as `*name` at every later occurrence, so
// alias structure survives a decode/encode round trip. JSON output expands
// aliases in place and drops anchors and tags.
//
// # Usage
//
//	node := ir.FromMap(map[string]*ir.Node{
//	    "name": ir.FromString("alice"),
//	})
//	err := encode.Encode(node, os.Stdout)
//
//	// JSON output
//	err := encode.EncodeJSON(node, os.Stdout)
package encode

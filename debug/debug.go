// Package debug provides environment-gated diagnostic logging. Flags are
// read once at package init; set YAMLPATH_DEBUG to enable everything or one
// of the narrower YAMLPATH_DEBUG_* variables to enable a single area.
package debug

import (
	"os"
	"strconv"
)

type debug struct {
	All    bool
	Parse  bool
	Get    bool
	Set    bool
	Delete bool
	Merge  bool
	Diff   bool
	Eyaml  bool
}

var d *debug

func init() {
	d = &debug{}
	d.All = boolEnv("YAMLPATH_DEBUG")
	d.Parse = boolEnv("YAMLPATH_DEBUG_PARSE")
	d.Get = boolEnv("YAMLPATH_DEBUG_GET")
	d.Set = boolEnv("YAMLPATH_DEBUG_SET")
	d.Delete = boolEnv("YAMLPATH_DEBUG_DELETE")
	d.Merge = boolEnv("YAMLPATH_DEBUG_MERGE")
	d.Diff = boolEnv("YAMLPATH_DEBUG_DIFF")
	d.Eyaml = boolEnv("YAMLPATH_DEBUG_EYAML")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Parse() bool {
	return d.All || d.Parse
}
func Get() bool {
	return d.All || d.Get
}
func Set() bool {
	return d.All || d.Set
}
func Delete() bool {
	return d.All || d.Delete
}
func Merge() bool {
	return d.All || d.Merge
}
func Diff() bool {
	return d.All || d.Diff
}
func Eyaml() bool {
	return d.All || d.Eyaml
}

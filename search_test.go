package yamlpath

import (
	"testing"

	"github.com/wwkimball/yamlpath/ir"
)

func TestSearchMatches(t *testing.T) {
	for _, tc := range []struct {
		name     string
		method   SearchMethod
		needle   string
		haystack *ir.Node
		want     bool
	}{
		{"equals string", MethodEquals, "abc", ir.FromString("abc"), true},
		{"equals numeric coercion", MethodEquals, "5", ir.FromInt(5), true},
		{"equals numeric float", MethodEquals, "5.0", ir.FromInt(5), true},
		{"equals mismatch", MethodEquals, "abc", ir.FromString("abd"), false},
		{"starts with", MethodStartsWith, "ab", ir.FromString("abc"), true},
		{"ends with", MethodEndsWith, "bc", ir.FromString("abc"), true},
		{"contains", MethodContains, "b", ir.FromString("abc"), true},
		{"greater than numeric", MethodGreaterThan, "3", ir.FromInt(5), true},
		{"greater than lexical", MethodGreaterThan, "apple", ir.FromString("banana"), true},
		{"less than or equal", MethodLessOrEqual, "5", ir.FromFloat(5.0), true},
		{"regex", MethodRegex, "^a.c$", ir.FromString("abc"), true},
		{"null never matches", MethodEquals, "null", ir.Null(), false},
		{"container never matches", MethodContains, "a", ir.FromMap(map[string]*ir.Node{"a": ir.FromInt(1)}), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := searchMatches(tc.method, tc.needle, tc.haystack); got != tc.want {
				t.Errorf("searchMatches(%v, %q) = %v, want %v", tc.method, tc.needle, got, tc.want)
			}
		})
	}
}

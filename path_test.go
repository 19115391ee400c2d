package yamlpath

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSegments(t *testing.T) {
	tests := []struct {
		in        string
		wantTypes []SegmentType
		wantStr   string
	}{
		{"", nil, ""},
		{"a", []SegmentType{SegmentKey}, "a"},
		{"a.b.c", []SegmentType{SegmentKey, SegmentKey, SegmentKey}, "a.b.c"},
		{"/a/b", []SegmentType{SegmentKey, SegmentKey}, "/a/b"},
		{`a\.b`, []SegmentType{SegmentKey}, `a\.b`},
		{"a.'b.c'", []SegmentType{SegmentKey, SegmentKey}, `a.b\.c`},
		{`a."b c"`, []SegmentType{SegmentKey, SegmentKey}, `a.b\ c`},
		{"a[0]", []SegmentType{SegmentKey, SegmentIndex}, "a[0]"},
		{"a[-1]", []SegmentType{SegmentKey, SegmentIndex}, "a[-1]"},
		{"a[1:3]", []SegmentType{SegmentKey, SegmentSlice}, "a[1:3]"},
		{"&anc", []SegmentType{SegmentAnchor}, "&anc"},
		{"a[&anc]", []SegmentType{SegmentKey, SegmentAnchor}, "a[&anc]"},
		{"a.*", []SegmentType{SegmentKey, SegmentMatchAll}, "a.*"},
		{"a.**.b", []SegmentType{SegmentKey, SegmentTraverse, SegmentKey}, "a.**.b"},
		{"**", []SegmentType{SegmentTraverse}, "**"},
		{"[name=admin]", []SegmentType{SegmentSearch}, "[name=admin]"},
		{"[name^adm]", []SegmentType{SegmentSearch}, "[name^adm]"},
		{"[age>5]", []SegmentType{SegmentSearch}, "[age>5]"},
		{"[age>=5]", []SegmentType{SegmentSearch}, "[age>=5]"},
		{"[!name=foo]", []SegmentType{SegmentSearch}, "[name!=foo]"},
		{"[name=~/^adm/]", []SegmentType{SegmentSearch}, "[name=~/^adm/]"},
		{"[has_child(name)]", []SegmentType{SegmentKeywordSearch}, "[has_child(name)]"},
		{"[!has_child(name)]", []SegmentType{SegmentKeywordSearch}, "[!has_child(name)]"},
		{"[parent(2)]", []SegmentType{SegmentKeywordSearch}, "[parent(2)]"},
		{"(a)", []SegmentType{SegmentCollector}, "(a)"},
		{"(a)+(b)", []SegmentType{SegmentCollector, SegmentCollector}, "(a)+(b)"},
		{"(a)-(b)", []SegmentType{SegmentCollector, SegmentCollector}, "(a)-(b)"},
		{"(a)&(b)", []SegmentType{SegmentCollector, SegmentCollector}, "(a)&(b)"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			p, err := Parse(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			var gotTypes []SegmentType
			for _, seg := range p.Segments() {
				gotTypes = append(gotTypes, seg.Type)
			}
			if d := cmp.Diff(tc.wantTypes, gotTypes); d != "" {
				t.Errorf("segment types: (-want +got)\n%s", d)
			}
			if got := p.String(); got != tc.wantStr {
				t.Errorf("String() = %q, want %q", got, tc.wantStr)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	// Canonical strings re-parse to identical segments.
	exprs := []string{
		"a.b.c",
		"/a/b[0]",
		`a.b\.c`,
		"a[1:3].d",
		"&anc.sub",
		"users[name=admin].access",
		"**.key",
		"(a.b)+(c)-(d)",
		"[min(cost)]",
		"a[.^prefix]",
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			p1, err := Parse(expr)
			if err != nil {
				t.Fatal(err)
			}
			p2, err := Parse(p1.String())
			if err != nil {
				t.Fatalf("re-parse of %q: %v", p1.String(), err)
			}
			if !p1.Equals(p2) {
				t.Errorf("round trip changed the path: %q vs %q", p1, p2)
			}
		})
	}
}

func TestParseSplats(t *testing.T) {
	tests := []struct {
		in       string
		wantType SegmentType
		check    func(t *testing.T, seg *Segment)
	}{
		{"*", SegmentMatchAll, nil},
		{"**", SegmentTraverse, nil},
		{"abc*", SegmentSearch, func(t *testing.T, seg *Segment) {
			if seg.Search.Method != MethodStartsWith || seg.Search.Term != "abc" {
				t.Errorf("got %v %q", seg.Search.Method, seg.Search.Term)
			}
		}},
		{"*abc", SegmentSearch, func(t *testing.T, seg *Segment) {
			if seg.Search.Method != MethodEndsWith || seg.Search.Term != "abc" {
				t.Errorf("got %v %q", seg.Search.Method, seg.Search.Term)
			}
		}},
		{"ab*cd", SegmentSearch, func(t *testing.T, seg *Segment) {
			if seg.Search.Method != MethodRegex {
				t.Fatalf("got method %v, want regex", seg.Search.Method)
			}
			if seg.Search.Term != "^ab.*cd$" {
				t.Errorf("got term %q", seg.Search.Term)
			}
		}},
		{"a*b*c", SegmentSearch, func(t *testing.T, seg *Segment) {
			if seg.Search.Term != "^a.*b.*c$" {
				t.Errorf("got term %q", seg.Search.Term)
			}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			p, err := Parse(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if p.Len() != 1 {
				t.Fatalf("got %d segments", p.Len())
			}
			seg := p.Segments()[0]
			if seg.Type != tc.wantType {
				t.Fatalf("got type %v, want %v", seg.Type, tc.wantType)
			}
			if tc.check != nil {
				tc.check(t, seg)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	exprs := []string{
		"a[",
		"a['unclosed",
		"a[name=~/unterminated",
		"a[name>]",
		"a[abc]",
		"a[unknown_keyword(x)]",
		"(a",
		"**x",
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrPath) {
				t.Errorf("got %v, want ErrPath", err)
			}
			var pe *PathError
			if !errors.As(err, &pe) {
				t.Errorf("error is not a *PathError: %v", err)
			}
		})
	}
}

func TestParseAtomicFailure(t *testing.T) {
	p, err := Parse("a.b[")
	if p != nil || err == nil {
		t.Fatalf("got (%v, %v), want (nil, error)", p, err)
	}
}

func TestSeparatorDetection(t *testing.T) {
	dot := MustParse("a.b")
	if dot.Separator() != SeparatorDot {
		t.Errorf("got %v, want dot", dot.Separator())
	}
	slash := MustParse("/a/b")
	if slash.Separator() != SeparatorSlash {
		t.Errorf("got %v, want slash", slash.Separator())
	}
}

func TestPathAppendPop(t *testing.T) {
	p := MustParse("a.b")
	p2 := p.AppendKey("c")
	if p2.String() != "a.b.c" {
		t.Errorf("got %q", p2.String())
	}
	if p.Len() != 2 {
		t.Error("Append modified the receiver")
	}
	p3, last := p2.Pop()
	if p3.String() != "a.b" || last.Key != "c" {
		t.Errorf("got %q, %+v", p3.String(), last)
	}
	p4 := p.AppendIndex(0)
	if p4.String() != "a.b[0]" {
		t.Errorf("got %q", p4.String())
	}
}

func TestPathPrefix(t *testing.T) {
	p := MustParse("a.b.c")
	if !p.HasPrefix(MustParse("a.b")) {
		t.Error("a.b should prefix a.b.c")
	}
	if p.HasPrefix(MustParse("a.x")) {
		t.Error("a.x should not prefix a.b.c")
	}
	stripped := StripPathPrefix(p, MustParse("a"))
	if stripped.String() != "b.c" {
		t.Errorf("got %q, want b.c", stripped.String())
	}
}

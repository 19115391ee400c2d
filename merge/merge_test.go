package merge

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wwkimball/yamlpath/ir"
	"github.com/wwkimball/yamlpath/parse"
)

func mustDoc(t *testing.T, src string) *ir.Node {
	t.Helper()
	doc, err := parse.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func mergeDocs(t *testing.T, lhs, rhs string, cfg Config) (*ir.Node, error) {
	t.Helper()
	m, err := NewMerger(mustDoc(t, lhs), cfg)
	if err != nil {
		t.Fatalf("NewMerger: %v", err)
	}
	err = m.MergeWith(mustDoc(t, rhs))
	return m.Document(), err
}

// flatten converts a tree to plain Go values for readable test diffs.
func flatten(node *ir.Node) any {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case ir.MappingKind:
		out := []any{}
		for i, f := range node.Fields {
			out = append(out, []any{f.String, flatten(node.Values[i])})
		}
		return out
	case ir.SequenceKind:
		out := []any{}
		for _, v := range node.Values {
			out = append(out, flatten(v))
		}
		return out
	default:
		return node.ScalarValue()
	}
}

func wantEqual(t *testing.T, got *ir.Node, want string) {
	t.Helper()
	wantDoc := mustDoc(t, want)
	if !ir.Equal(got, wantDoc) {
		t.Errorf("merged document mismatch (-want +got):\n%s",
			cmp.Diff(flatten(wantDoc), flatten(got)))
	}
}

func TestMergeDeepHashes(t *testing.T) {
	got, err := mergeDocs(t,
		"a: 1\nc: 3\n",
		"b: 2\nc: 4\nd: 5\n",
		Config{})
	if err != nil {
		t.Fatal(err)
	}
	// b lands before c so right-document key order survives
	wantEqual(t, got, "a: 1\nb: 2\nc: 4\nd: 5\n")
}

func TestMergeHashModes(t *testing.T) {
	lhs := "a: 1\nb:\n  c: 2\n"
	rhs := "b:\n  d: 3\ne: 4\n"
	for _, tc := range []struct {
		name string
		mode HashStrategy
		want string
	}{
		{"left", HashLeft, lhs},
		{"right", HashRight, rhs},
		{"deep", HashDeep, "a: 1\nb:\n  c: 2\n  d: 3\ne: 4\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mergeDocs(t, lhs, rhs, Config{Hashes: tc.mode})
			if err != nil {
				t.Fatal(err)
			}
			wantEqual(t, got, tc.want)
		})
	}
}

func TestMergeArrayModes(t *testing.T) {
	lhs := "items: [1, 2, 3]\n"
	rhs := "items: [2, 4]\n"
	for _, tc := range []struct {
		name string
		mode ArrayStrategy
		want string
	}{
		{"all", ArrayAll, "items: [1, 2, 3, 2, 4]\n"},
		{"unique", ArrayUnique, "items: [1, 2, 3, 4]\n"},
		{"left", ArrayLeft, "items: [1, 2, 3]\n"},
		{"right", ArrayRight, "items: [2, 4]\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mergeDocs(t, lhs, rhs, Config{Arrays: tc.mode})
			if err != nil {
				t.Fatal(err)
			}
			wantEqual(t, got, tc.want)
		})
	}
}

func TestMergeAoHDeep(t *testing.T) {
	lhs := `
- name: alice
  age: 30
- name: bob
  age: 31
`
	rhs := `
- name: alice
  age: 99
- name: carol
  age: 25
`
	got, err := mergeDocs(t, lhs, rhs, Config{AoH: AoHDeep})
	if err != nil {
		t.Fatal(err)
	}
	wantEqual(t, got, `
- name: alice
  age: 99
- name: bob
  age: 31
- name: carol
  age: 25
`)
}

func TestMergeAoHExplicitKey(t *testing.T) {
	lhs := "recs:\n- color: red\n  id: 1\n"
	rhs := "recs:\n- color: blue\n  id: 1\n"
	got, err := mergeDocs(t, lhs, rhs, Config{
		AoH:  AoHDeep,
		Keys: map[string]string{"/recs": "id"},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantEqual(t, got, "recs:\n- color: blue\n  id: 1\n")
}

func TestMergeAoHMissingIdentityKey(t *testing.T) {
	lhs := "recs:\n- id: 1\n"
	rhs := "recs:\n- other: 2\n"
	_, err := mergeDocs(t, lhs, rhs, Config{AoH: AoHDeep})
	if !errors.Is(err, ErrMerge) {
		t.Fatalf("got %v, want ErrMerge for record without identity key", err)
	}
}

func TestMergeAoHUnique(t *testing.T) {
	lhs := "recs:\n- id: 1\n- id: 2\n"
	rhs := "recs:\n- id: 2\n- id: 3\n"
	got, err := mergeDocs(t, lhs, rhs, Config{AoH: AoHUnique})
	if err != nil {
		t.Fatal(err)
	}
	wantEqual(t, got, "recs:\n- id: 1\n- id: 2\n- id: 3\n")
}

func TestMergePathRules(t *testing.T) {
	lhs := "prefs:\n  colors: [red]\n  sizes: [s]\n"
	rhs := "prefs:\n  colors: [blue]\n  sizes: [m]\n"
	got, err := mergeDocs(t, lhs, rhs, Config{
		Rules: map[string]string{"/prefs/colors": "left"},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantEqual(t, got, "prefs:\n  colors: [red]\n  sizes: [s, m]\n")
}

func TestMergeInheritedRuleSkipsForeignVocabulary(t *testing.T) {
	// The record list gets "deep"; the sequences inside each record inherit
	// the same rule by prefix, cannot parse it as an array strategy, and fall
	// back to the category default.
	lhs := "servers:\n- host: a\n  tags: [x]\n"
	rhs := "servers:\n- host: a\n  tags: [y]\n"
	got, err := mergeDocs(t, lhs, rhs, Config{
		Rules: map[string]string{"/servers": "deep"},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantEqual(t, got, "servers:\n- host: a\n  tags: [x, y]\n")
}

func TestMergeBadExactRule(t *testing.T) {
	_, err := mergeDocs(t, "a:\n  b: 1\n", "a:\n  c: 2\n", Config{
		Rules: map[string]string{"/a": "unique"},
	})
	if !errors.Is(err, ErrMerge) {
		t.Fatalf("got %v, want ErrMerge for a hash rule with array vocabulary", err)
	}
}

func TestMergeAtExisting(t *testing.T) {
	got, err := mergeDocs(t,
		"outer:\n  inner:\n    a: 1\n",
		"b: 2\n",
		Config{MergeAt: "/outer/inner"})
	if err != nil {
		t.Fatal(err)
	}
	wantEqual(t, got, "outer:\n  inner:\n    a: 1\n    b: 2\n")
}

func TestMergeAtNovelPath(t *testing.T) {
	got, err := mergeDocs(t,
		"a: 1\n",
		"x: 9\n",
		Config{MergeAt: "/b/c"})
	if err != nil {
		t.Fatal(err)
	}
	wantEqual(t, got, "a: 1\nb:\n  c:\n    x: 9\n")
}

func TestMergeScalarTargets(t *testing.T) {
	t.Run("into list", func(t *testing.T) {
		got, err := mergeDocs(t, "list: [1]\n", "2\n", Config{MergeAt: "/list"})
		if err != nil {
			t.Fatal(err)
		}
		wantEqual(t, got, "list: [1, 2]\n")
	})
	t.Run("into scalar", func(t *testing.T) {
		got, err := mergeDocs(t, "v: 1\n", "2\n", Config{MergeAt: "/v"})
		if err != nil {
			t.Fatal(err)
		}
		wantEqual(t, got, "v: 2\n")
	})
	t.Run("into mapping fails", func(t *testing.T) {
		_, err := mergeDocs(t, "a: 1\n", "2\n", Config{})
		if !errors.Is(err, ErrMerge) {
			t.Fatalf("got %v, want ErrMerge merging a keyless scalar into a mapping", err)
		}
	})
}

func TestMergeAnchorConflicts(t *testing.T) {
	lhs := "a: &x 1\nb: *x\n"
	rhs := "c: &x 2\n"

	t.Run("stop", func(t *testing.T) {
		_, err := mergeDocs(t, lhs, rhs, Config{})
		if !errors.Is(err, ErrMerge) {
			t.Fatalf("got %v, want ErrMerge on conflicting anchors", err)
		}
	})

	t.Run("rename", func(t *testing.T) {
		got, err := mergeDocs(t, lhs, rhs, Config{Anchors: AnchorRename})
		if err != nil {
			t.Fatal(err)
		}
		wantEqual(t, got, "a: 1\nb: 1\nc: 2\n")
		anchors := ir.ScanAnchors(got)
		if _, ok := anchors["x"]; !ok {
			t.Error("anchor x missing after rename")
		}
		if renamed, ok := anchors["x_1"]; !ok {
			t.Error("renamed anchor x_1 missing")
		} else if v, _ := renamed.ScalarValue().(int64); v != 2 {
			t.Errorf("renamed anchor holds %v, want 2", renamed.ScalarValue())
		}
	})

	t.Run("left", func(t *testing.T) {
		got, err := mergeDocs(t, lhs, rhs, Config{Anchors: AnchorLeft})
		if err != nil {
			t.Fatal(err)
		}
		wantEqual(t, got, "a: 1\nb: 1\nc: 1\n")
	})

	t.Run("right", func(t *testing.T) {
		got, err := mergeDocs(t, lhs, rhs, Config{Anchors: AnchorRight})
		if err != nil {
			t.Fatal(err)
		}
		wantEqual(t, got, "a: 2\nb: 2\nc: 2\n")
	})

	t.Run("equal values fold", func(t *testing.T) {
		got, err := mergeDocs(t, lhs, "c: &x 1\n", Config{})
		if err != nil {
			t.Fatal(err)
		}
		wantEqual(t, got, "a: 1\nb: 1\nc: 1\n")
	})
}

func TestMergeIntoEmptyDocument(t *testing.T) {
	m, err := NewMerger(nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.MergeWith(mustDoc(t, "a: 1\n")); err != nil {
		t.Fatal(err)
	}
	wantEqual(t, m.Document(), "a: 1\n")
}

func TestMergeIntoEmptyDocumentAtPath(t *testing.T) {
	m, err := NewMerger(nil, Config{MergeAt: "/deep/in"})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.MergeWith(mustDoc(t, "a: 1\n")); err != nil {
		t.Fatal(err)
	}
	wantEqual(t, m.Document(), "deep:\n  in:\n    a: 1\n")
}

func TestMergeNilRight(t *testing.T) {
	m, err := NewMerger(mustDoc(t, "a: 1\n"), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.MergeWith(nil); err != nil {
		t.Fatal(err)
	}
	wantEqual(t, m.Document(), "a: 1\n")
}

func TestMergeAllOrNothing(t *testing.T) {
	lhs := "other: [1]\nrecs:\n- id: 1\n"
	m, err := NewMerger(mustDoc(t, lhs), Config{AoH: AoHDeep})
	if err != nil {
		t.Fatal(err)
	}
	// "other" would merge first; the flawed record list must roll it back.
	err = m.MergeWith(mustDoc(t, "other: [2]\nrecs:\n- nope: 2\n"))
	if !errors.Is(err, ErrMerge) {
		t.Fatalf("got %v, want ErrMerge", err)
	}
	wantEqual(t, m.Document(), lhs)
}

func TestMergeBadRulePath(t *testing.T) {
	if _, err := NewMerger(nil, Config{Rules: map[string]string{"a[": "left"}}); err == nil {
		t.Fatal("expected error for unparseable rule path")
	}
}

func TestMergeBadInsertionPath(t *testing.T) {
	if _, err := NewMerger(nil, Config{MergeAt: "a["}); err == nil {
		t.Fatal("expected error for unparseable insertion path")
	}
}

package diff

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wwkimball/yamlpath/ir"
	"github.com/wwkimball/yamlpath/parse"
)

func mustDoc(t *testing.T, src string) *ir.Node {
	t.Helper()
	doc, err := parse.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return doc
}

func compare(t *testing.T, lhs, rhs string, cfg Config) []*Entry {
	t.Helper()
	entries, err := Compare(mustDoc(t, lhs), mustDoc(t, rhs), cfg)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	return entries
}

// summarize renders entries as "action path", dropping Same entries
// unless withSame is set.
func summarize(entries []*Entry, withSame bool) []string {
	var out []string
	for _, e := range entries {
		if e.Action == Same && !withSame {
			continue
		}
		out = append(out, fmt.Sprintf("%s %s", e.Action, e.Path))
	}
	return out
}

func wantSummary(t *testing.T, got []*Entry, withSame bool, want []string) {
	t.Helper()
	if d := cmp.Diff(want, summarize(got, withSame)); d != "" {
		t.Errorf("unexpected report (-want +got):\n%s", d)
	}
}

func TestDiffScalars(t *testing.T) {
	entries := compare(t, "a: 1\n", "a: 2\n", Config{})
	wantSummary(t, entries, true, []string{"c /a"})
	if entries[0].LHS.ScalarValue() != int64(1) || entries[0].RHS.ScalarValue() != int64(2) {
		t.Errorf("change entry carries %v -> %v", entries[0].LHS, entries[0].RHS)
	}

	entries = compare(t, "a: 1\n", "a: 1\n", Config{})
	wantSummary(t, entries, true, []string{"s /a"})
}

func TestDiffMappings(t *testing.T) {
	lhs := "a: 1\nb: 2\nc: 3\n"
	rhs := "a: 1\nc: 4\nd: 5\n"
	entries := compare(t, lhs, rhs, Config{})
	wantSummary(t, entries, false, []string{"c /c", "d /b", "a /d"})
}

func TestDiffNestedMappings(t *testing.T) {
	lhs := "outer:\n  x: 1\n  y: 2\n"
	rhs := "outer:\n  x: 1\n  y: 3\n  z: 4\n"
	entries := compare(t, lhs, rhs, Config{})
	wantSummary(t, entries, false, []string{"c /outer/y", "a /outer/z"})
}

func TestDiffMappingTagChange(t *testing.T) {
	lhs := mustDoc(t, "m:\n  k: 1\n")
	rhs := mustDoc(t, "m:\n  k: 1\n")
	ir.Get(rhs, "m").Tag = "!custom"

	entries, err := Compare(lhs, rhs, Config{})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	wantSummary(t, entries, false, []string{"d /m", "a /m"})
}

func TestDiffKindChange(t *testing.T) {
	lhs := "a:\n  b: 1\n"
	rhs := "a:\n  - 1\n  - 2\n"
	entries := compare(t, lhs, rhs, Config{})
	wantSummary(t, entries, false, []string{"d /a/b", "a /a[0]", "a /a[1]"})
}

func TestDiffArraysByPosition(t *testing.T) {
	lhs := "list:\n  - 1\n  - 2\n  - 3\n"
	rhs := "list:\n  - 1\n  - 9\n"
	entries := compare(t, lhs, rhs, Config{})
	wantSummary(t, entries, false, []string{"c /list[1]", "d /list[2]"})
}

func TestDiffArraysByValueReorder(t *testing.T) {
	lhs := "l:\n  - 1\n  - 2\n  - 3\n"
	rhs := "l:\n  - 3\n  - 1\n  - 2\n"
	entries := compare(t, lhs, rhs, Config{Arrays: ArrayValue})
	wantSummary(t, entries, false, nil)
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3 Same entries", len(entries))
	}
}

func TestDiffArraysByValueReplacement(t *testing.T) {
	// The delete of element 0 and the add at the same index fold into
	// one change.
	lhs := "l:\n  - 1\n  - 2\n"
	rhs := "l:\n  - 3\n  - 2\n"
	entries := compare(t, lhs, rhs, Config{Arrays: ArrayValue})
	wantSummary(t, entries, false, []string{"c /l[0]"})
}

func TestDiffAoHByKey(t *testing.T) {
	lhs := "recs:\n  - name: alice\n    lvl: 1\n  - name: bob\n    lvl: 2\n"
	rhs := "recs:\n  - name: bob\n    lvl: 2\n  - name: carol\n    lvl: 3\n"
	entries := compare(t, lhs, rhs, Config{AoH: AoHKey})
	wantSummary(t, entries, false, []string{"d /recs[0]", "a /recs[1]"})
}

func TestDiffAoHDeep(t *testing.T) {
	lhs := "recs:\n  - name: alice\n    lvl: 1\n  - name: bob\n    lvl: 2\n"
	rhs := "recs:\n  - name: bob\n    lvl: 2\n  - name: alice\n    lvl: 9\n"
	entries := compare(t, lhs, rhs, Config{AoH: AoHDeep})
	wantSummary(t, entries, false, []string{"c /recs[1]/lvl"})
}

func TestDiffAoHByPosition(t *testing.T) {
	lhs := "recs:\n  - name: alice\n  - name: bob\n"
	rhs := "recs:\n  - name: bob\n  - name: alice\n"
	entries := compare(t, lhs, rhs, Config{AoH: AoHPosition})
	wantSummary(t, entries, false, []string{"c /recs[0]", "c /recs[1]"})
}

func TestDiffAoHExplicitKey(t *testing.T) {
	lhs := "recs:\n  - name: a\n    id: 1\n    v: 1\n"
	rhs := "recs:\n  - name: b\n    id: 1\n    v: 2\n"
	cfg := Config{AoH: AoHDeep, Keys: map[string]string{"/recs": "id"}}
	entries := compare(t, lhs, rhs, cfg)
	wantSummary(t, entries, false, []string{"c /recs[0]/name", "c /recs[0]/v"})
}

func TestDiffPathRule(t *testing.T) {
	lhs := "pinned:\n  - 1\n  - 2\nloose:\n  - 1\n  - 2\n"
	rhs := "pinned:\n  - 2\n  - 1\nloose:\n  - 2\n  - 1\n"
	cfg := Config{Rules: map[string]string{"/pinned": "value"}}
	entries := compare(t, lhs, rhs, cfg)
	// The pinned list re-aligns cleanly; the loose one reports both
	// positions changed.
	wantSummary(t, entries, false, []string{"c /loose[0]", "c /loose[1]"})
}

func TestDiffBadExactRule(t *testing.T) {
	cfg := Config{Rules: map[string]string{"/l": "bogus"}}
	_, err := Compare(mustDoc(t, "l:\n  - 1\n"), mustDoc(t, "l:\n  - 2\n"), cfg)
	if !errors.Is(err, ErrDiff) {
		t.Fatalf("got %v, want ErrDiff", err)
	}
}

func TestDiffBadRulePath(t *testing.T) {
	cfg := Config{Rules: map[string]string{"l[": "value"}}
	if _, err := NewDiffer(cfg); err == nil {
		t.Fatal("expected rule path parse error")
	}
}

func TestEntryString(t *testing.T) {
	entries := compare(t, "k: 1\n", "k: 2\n", Config{})
	want := "c /k\n< 1\n---\n> 2"
	if got := entries[0].String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	entries = compare(t, "{}\n", "m:\n  k: 1\n", Config{})
	want = "a /m\n> {\"k\":1}"
	if got := entries[0].String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEntryDetailMultiline(t *testing.T) {
	lhs := mustDoc(t, "txt: \"line one\\nline two\\n\"\n")
	rhs := mustDoc(t, "txt: \"line one\\nline 2\\n\"\n")
	entries, err := Compare(lhs, rhs, Config{})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != Change {
		t.Fatalf("unexpected entries: %v", summarize(entries, true))
	}
	detail := entries[0].Detail()
	if !strings.Contains(detail, "[-") || !strings.Contains(detail, "{+") {
		t.Errorf("detail lacks change markers: %q", detail)
	}
	if !strings.Contains(detail, "line one") {
		t.Errorf("detail lacks unchanged text: %q", detail)
	}
}

func TestEntryDetailScalar(t *testing.T) {
	entries := compare(t, "k: 1\n", "k: 2\n", Config{})
	if detail := entries[0].Detail(); detail != "" {
		t.Errorf("scalar change produced detail %q", detail)
	}
}

func TestCreateMergePatch(t *testing.T) {
	lhs := mustDoc(t, "a: 1\nb: 2\n")
	rhs := mustDoc(t, "a: 1\nb: 3\nc: 4\n")
	patch, err := CreateMergePatch(lhs, rhs)
	if err != nil {
		t.Fatalf("create patch: %v", err)
	}
	if got := string(patch); got != `{"b":3,"c":4}` {
		t.Errorf("got patch %s", got)
	}
}

func TestApplyMergePatch(t *testing.T) {
	doc := mustDoc(t, "a: 1\nb: 2\n")
	out, err := ApplyMergePatch(doc, []byte(`{"b":3,"c":4}`))
	if err != nil {
		t.Fatalf("apply patch: %v", err)
	}
	for key, want := range map[string]int64{"a": 1, "b": 3, "c": 4} {
		node := ir.Get(out, key)
		if node == nil || node.ScalarValue() != want {
			t.Errorf("key %s = %v, want %d", key, node, want)
		}
	}
	if got := ir.Get(doc, "b").ScalarValue(); got != int64(2) {
		t.Errorf("source document changed, b = %v", got)
	}
}

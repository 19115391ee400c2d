package yamlpath

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wwkimball/yamlpath/ir"
)

func TestKeywordHasChild(t *testing.T) {
	p := NewProcessor(mustDoc(t, usersDoc))
	refs, err := p.GetNodes(MustParse("users[has_child(name)]"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 3 {
		t.Errorf("got %d matches, want 3", len(refs))
	}
	inverted, err := p.GetNodes(MustParse("users[!has_child(name)]"))
	if err != nil {
		t.Fatal(err)
	}
	if len(inverted) != 0 {
		t.Errorf("got %d inverted matches, want 0", len(inverted))
	}
}

func TestKeywordName(t *testing.T) {
	p := NewProcessor(mustDoc(t, "a:\n  b: 1\n"))
	refs, err := p.GetNodes(MustParse("a.b[name()]"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]any{"b"}, resultValues(refs)); d != "" {
		t.Error(d)
	}
}

func TestKeywordMaxMin(t *testing.T) {
	p := NewProcessor(mustDoc(t, usersDoc))

	maxes, err := p.GetNodes(MustParse("users[max(access_level)].name"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]any{"alice", "bob"}, resultValues(maxes)); d != "" {
		t.Error(d)
	}

	mins, err := p.GetNodes(MustParse("users[min(access_level)].name"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]any{"admin"}, resultValues(mins)); d != "" {
		t.Error(d)
	}

	inverted, err := p.GetNodes(MustParse("users[!max(access_level)].name"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]any{"admin"}, resultValues(inverted)); d != "" {
		t.Error(d)
	}
}

func TestKeywordMaxOnScalars(t *testing.T) {
	p := NewProcessor(mustDoc(t, "prices: [4, 9, 2]\n"))
	refs, err := p.GetNodes(MustParse("prices[max()]"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]any{int64(9)}, resultValues(refs)); d != "" {
		t.Error(d)
	}

	_, err = p.GetNodes(MustParse("prices[max(cost)]"), MustExist())
	if !errors.Is(err, ErrPath) {
		t.Fatalf("got %v, want ErrPath for key name against scalar elements", err)
	}
}

func TestKeywordParent(t *testing.T) {
	p := NewProcessor(mustDoc(t, usersDoc))

	refs, err := p.GetNodes(MustParse("users[0].name[parent()][has_child(access_level)]"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 {
		t.Fatalf("got %d matches, want 1", len(refs))
	}

	lists, err := p.GetNodes(MustParse("users[0].name[parent(2)]"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if lists[0].Node.Kind != ir.SequenceKind {
		t.Errorf("parent(2) landed on %v, want the users sequence", lists[0].Node.Kind)
	}

	_, err = p.GetNodes(MustParse("users[0].name[parent(9)]"), MustExist())
	if !errors.Is(err, ErrPath) {
		t.Fatalf("got %v, want ErrPath climbing above the root", err)
	}
}

func TestKeywordDistinct(t *testing.T) {
	p := NewProcessor(mustDoc(t, usersDoc))
	refs, err := p.GetNodes(MustParse("(users.*.access_level)[distinct()]"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]any{int64(0), int64(5)}, resultValues(refs)); d != "" {
		t.Error(d)
	}

	_, err = p.GetNodes(MustParse("(users.*.access_level)[!distinct()]"), MustExist())
	if !errors.Is(err, ErrPath) {
		t.Fatalf("got %v, want ErrPath for inverted distinct", err)
	}
}

func TestKeywordUnique(t *testing.T) {
	p := NewProcessor(mustDoc(t, usersDoc))

	unique, err := p.GetNodes(MustParse("(users.*.access_level)[unique()]"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]any{int64(0)}, resultValues(unique)); d != "" {
		t.Error(d)
	}

	dups, err := p.GetNodes(MustParse("(users.*.access_level)[!unique()]"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]any{int64(5), int64(5)}, resultValues(dups)); d != "" {
		t.Error(d)
	}
}

func TestKeywordExpr(t *testing.T) {
	p := NewProcessor(mustDoc(t, usersDoc))
	refs, err := p.GetNodes(MustParse("users[expr(value.access_level > 3)].name"), MustExist())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]any{"alice", "bob"}, resultValues(refs)); d != "" {
		t.Error(d)
	}
}

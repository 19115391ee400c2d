package merge

import (
	"fmt"
	"strings"

	"github.com/wwkimball/yamlpath"
)

// HashStrategy selects how mappings combine.
type HashStrategy int

const (
	HashDeep HashStrategy = iota
	HashLeft
	HashRight
)

func (s HashStrategy) String() string {
	switch s {
	case HashLeft:
		return "left"
	case HashRight:
		return "right"
	default:
		return "deep"
	}
}

func ParseHashStrategy(s string) (HashStrategy, error) {
	switch strings.ToLower(s) {
	case "deep":
		return HashDeep, nil
	case "left":
		return HashLeft, nil
	case "right":
		return HashRight, nil
	}
	return HashDeep, fmt.Errorf("unknown hash merge strategy %q", s)
}

// ArrayStrategy selects how sequences of scalars or sequences combine.
type ArrayStrategy int

const (
	ArrayAll ArrayStrategy = iota
	ArrayUnique
	ArrayLeft
	ArrayRight
)

func (s ArrayStrategy) String() string {
	switch s {
	case ArrayUnique:
		return "unique"
	case ArrayLeft:
		return "left"
	case ArrayRight:
		return "right"
	default:
		return "all"
	}
}

func ParseArrayStrategy(s string) (ArrayStrategy, error) {
	switch strings.ToLower(s) {
	case "all":
		return ArrayAll, nil
	case "unique":
		return ArrayUnique, nil
	case "left":
		return ArrayLeft, nil
	case "right":
		return ArrayRight, nil
	}
	return ArrayAll, fmt.Errorf("unknown array merge strategy %q", s)
}

// AoHStrategy selects how arrays-of-hashes combine. Deep treats each mapping
// as a record paired by an identity key.
type AoHStrategy int

const (
	AoHAll AoHStrategy = iota
	AoHUnique
	AoHLeft
	AoHRight
	AoHDeep
)

func (s AoHStrategy) String() string {
	switch s {
	case AoHUnique:
		return "unique"
	case AoHLeft:
		return "left"
	case AoHRight:
		return "right"
	case AoHDeep:
		return "deep"
	default:
		return "all"
	}
}

func ParseAoHStrategy(s string) (AoHStrategy, error) {
	switch strings.ToLower(s) {
	case "all":
		return AoHAll, nil
	case "unique":
		return AoHUnique, nil
	case "left":
		return AoHLeft, nil
	case "right":
		return AoHRight, nil
	case "deep":
		return AoHDeep, nil
	}
	return AoHAll, fmt.Errorf("unknown array-of-hash merge strategy %q", s)
}

// AnchorStrategy selects how same-named anchors with differing values
// reconcile across the two documents.
type AnchorStrategy int

const (
	AnchorStop AnchorStrategy = iota
	AnchorLeft
	AnchorRight
	AnchorRename
)

func (s AnchorStrategy) String() string {
	switch s {
	case AnchorLeft:
		return "left"
	case AnchorRight:
		return "right"
	case AnchorRename:
		return "rename"
	default:
		return "stop"
	}
}

func ParseAnchorStrategy(s string) (AnchorStrategy, error) {
	switch strings.ToLower(s) {
	case "stop":
		return AnchorStop, nil
	case "left":
		return AnchorLeft, nil
	case "right":
		return AnchorRight, nil
	case "rename":
		return AnchorRename, nil
	}
	return AnchorStop, fmt.Errorf("unknown anchor conflict strategy %q", s)
}

// Config carries every merge decision. The zero value merges at the document
// root with deep hashes, all arrays, all arrays-of-hashes, and stops on
// anchor conflicts.
type Config struct {
	Anchors AnchorStrategy
	Hashes  HashStrategy
	Arrays  ArrayStrategy
	AoH     AoHStrategy

	// MergeAt names the left-document node receiving the right document.
	// Empty means the document root. Missing containers along the path are
	// created.
	MergeAt string

	// Rules maps YAML Paths to per-node strategy names, overriding the
	// category defaults above. An exact path match wins; otherwise the rule
	// with the longest ancestor prefix applies.
	Rules map[string]string

	// Keys maps YAML Paths to the identity key used when deep-merging the
	// array-of-hashes at that path. Without an entry the first attribute of
	// the first left record is the identity key.
	Keys map[string]string
}

type pathRule struct {
	path  *yamlpath.Path
	value string
}

type ruleTable []pathRule

func compileRules(raw map[string]string) (ruleTable, error) {
	table := make(ruleTable, 0, len(raw))
	for text, value := range raw {
		path, err := yamlpath.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("merge rule path %q: %w", text, err)
		}
		table = append(table, pathRule{path: path, value: value})
	}
	return table, nil
}

// lookup resolves the rule for path: exact match first, then the longest
// ancestor prefix. exact distinguishes the two so callers can ignore an
// inherited rule whose strategy vocabulary belongs to another category.
func (t ruleTable) lookup(path *yamlpath.Path) (value string, exact, found bool) {
	bestLen := -1
	for _, r := range t {
		if r.path.Equals(path) {
			return r.value, true, true
		}
		if path.HasPrefix(r.path) && r.path.Len() > bestLen {
			value, bestLen, found = r.value, r.path.Len(), true
		}
	}
	return value, false, found
}

func (c *Config) insertionPoint() (*yamlpath.Path, error) {
	if c.MergeAt == "" {
		return yamlpath.Parse("/")
	}
	return yamlpath.Parse(c.MergeAt)
}

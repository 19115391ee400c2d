package diff

import (
	"fmt"
	"strings"

	"github.com/wwkimball/yamlpath"
	"github.com/wwkimball/yamlpath/ir"
)

// ArrayMode selects how plain sequences are paired for comparison.
type ArrayMode int

const (
	// ArrayPosition pairs elements by ordinal position.
	ArrayPosition ArrayMode = iota
	// ArrayValue re-aligns equal elements before comparing what remains.
	ArrayValue
)

func (m ArrayMode) String() string {
	switch m {
	case ArrayPosition:
		return "position"
	case ArrayValue:
		return "value"
	}
	return fmt.Sprintf("ArrayMode(%d)", int(m))
}

func ParseArrayMode(s string) (ArrayMode, error) {
	switch strings.ToLower(s) {
	case "position":
		return ArrayPosition, nil
	case "value":
		return ArrayValue, nil
	}
	return 0, fmt.Errorf("unknown array diff mode %q", s)
}

// AoHMode selects how records in an array-of-hashes are paired.
type AoHMode int

const (
	// AoHPosition compares records as whole units by ordinal position.
	AoHPosition AoHMode = iota
	// AoHDeepPosition pairs by position and then traverses into each pair.
	AoHDeepPosition
	// AoHKey pairs records by identity key and compares them as whole units.
	AoHKey
	// AoHDeep pairs records by identity key and traverses into each pair.
	AoHDeep
	// AoHValue re-aligns wholly equal records before comparing the rest.
	AoHValue
)

func (m AoHMode) String() string {
	switch m {
	case AoHPosition:
		return "position"
	case AoHDeepPosition:
		return "dpos"
	case AoHKey:
		return "key"
	case AoHDeep:
		return "deep"
	case AoHValue:
		return "value"
	}
	return fmt.Sprintf("AoHMode(%d)", int(m))
}

func ParseAoHMode(s string) (AoHMode, error) {
	switch strings.ToLower(s) {
	case "position":
		return AoHPosition, nil
	case "dpos":
		return AoHDeepPosition, nil
	case "key":
		return AoHKey, nil
	case "deep":
		return AoHDeep, nil
	case "value":
		return AoHValue, nil
	}
	return 0, fmt.Errorf("unknown array-of-hash diff mode %q", s)
}

// Config controls a comparison. The zero value compares everything by
// position and keeps equal-valued entries in the report.
type Config struct {
	// Arrays is the default mode for sequences of scalars or sequences.
	Arrays ArrayMode
	// AoH is the default mode for sequences of mappings.
	AoH AoHMode

	// Rules overrides Arrays or AoH per yamlpath. A rule applies to the
	// exact path it names and, failing an exact match, to descendants of
	// the longest matching rule path. The value vocabulary is that of the
	// sequence kind found at the consulted node.
	Rules map[string]string

	// Keys names the identity key for array-of-hash pairing per yamlpath.
	// Without a rule the first key of the first right-hand record is used.
	Keys map[string]string
}

type pathRule struct {
	path  *yamlpath.Path
	value string
}

type ruleTable []pathRule

func compileRules(src map[string]string) (ruleTable, error) {
	table := make(ruleTable, 0, len(src))
	for text, value := range src {
		p, err := yamlpath.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("diff rule path %q: %w", text, err)
		}
		table = append(table, pathRule{path: p, value: value})
	}
	return table, nil
}

// lookup resolves the rule for path. An exact match always wins; otherwise
// the longest rule path which is a prefix of path applies.
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

func (d *Differ) arrayModeAt(path *yamlpath.Path) (ArrayMode, error) {
	if value, exact, ok := d.rules.lookup(path); ok {
		mode, err := ParseArrayMode(value)
		if err == nil {
			return mode, nil
		}
		if exact {
			return 0, diffErrf(path.String(), "%v", err)
		}
		// Inherited rule written for another sequence kind.
	}
	return d.cfg.Arrays, nil
}

func (d *Differ) aohModeAt(path *yamlpath.Path) (AoHMode, error) {
	if value, exact, ok := d.rules.lookup(path); ok {
		mode, err := ParseAoHMode(value)
		if err == nil {
			return mode, nil
		}
		if exact {
			return 0, diffErrf(path.String(), "%v", err)
		}
	}
	return d.cfg.AoH, nil
}

// identityKeyAt resolves the pairing key for the record list at path.
func (d *Differ) identityKeyAt(path *yamlpath.Path, lhs, rhs *ir.Node) string {
	if key, _, ok := d.keys.lookup(path); ok {
		return key
	}
	for _, list := range []*ir.Node{rhs, lhs} {
		for _, ele := range list.Values {
			if ele.Kind == ir.MappingKind && len(ele.Fields) > 0 {
				return ele.Fields[0].String
			}
		}
	}
	return ""
}

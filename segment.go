package yamlpath

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/vm"
)

type SegmentType int

const (
	SegmentKey SegmentType = iota
	SegmentIndex
	SegmentSlice
	SegmentAnchor
	SegmentMatchAll
	SegmentTraverse
	SegmentSearch
	SegmentKeywordSearch
	SegmentCollector
)

func (t SegmentType) String() string {
	s, ok := map[SegmentType]string{
		SegmentKey:           "Key",
		SegmentIndex:         "Index",
		SegmentSlice:         "Slice",
		SegmentAnchor:        "Anchor",
		SegmentMatchAll:      "MatchAll",
		SegmentTraverse:      "Traverse",
		SegmentSearch:        "Search",
		SegmentKeywordSearch: "KeywordSearch",
		SegmentCollector:     "Collector",
	}[t]
	if ok {
		return s
	}
	return "<unknown segment type>"
}

type SearchMethod int

const (
	MethodEquals SearchMethod = iota
	MethodStartsWith
	MethodEndsWith
	MethodContains
	MethodGreaterThan
	MethodLessThan
	MethodGreaterOrEqual
	MethodLessOrEqual
	MethodRegex
)

func (m SearchMethod) String() string {
	s, ok := map[SearchMethod]string{
		MethodEquals:         "=",
		MethodStartsWith:     "^",
		MethodEndsWith:       "$",
		MethodContains:       "%",
		MethodGreaterThan:    ">",
		MethodLessThan:       "<",
		MethodGreaterOrEqual: ">=",
		MethodLessOrEqual:    "<=",
		MethodRegex:          "=~",
	}[m]
	if ok {
		return s
	}
	return "<unknown search method>"
}

// SearchTerms hold one `[attribute OP term]` search expression. Attribute
// "." targets key names of mappings and element values of sequences. For
// MethodRegex, Regexp holds the expression compiled at parse time.
type SearchTerms struct {
	Inverted  bool
	Method    SearchMethod
	Attribute string
	Term      string
	Regexp    *regexp.Regexp
}

func (st *SearchTerms) String() string {
	var safeTerm string
	if st.Method == MethodRegex {
		safeTerm = "/" + strings.ReplaceAll(st.Term, "/", `\/`) + "/"
	} else {
		safeTerm = strings.ReplaceAll(st.Term, " ", `\ `)
	}
	invert := ""
	if st.Inverted {
		invert = "!"
	}
	return "[" + st.Attribute + invert + st.Method.String() + safeTerm + "]"
}

type SearchKeyword int

const (
	KeywordHasChild SearchKeyword = iota
	KeywordName
	KeywordMax
	KeywordMin
	KeywordParent
	KeywordDistinct
	KeywordUnique
	KeywordExpr
)

func (k SearchKeyword) String() string {
	s, ok := map[SearchKeyword]string{
		KeywordHasChild: "has_child",
		KeywordName:     "name",
		KeywordMax:      "max",
		KeywordMin:      "min",
		KeywordParent:   "parent",
		KeywordDistinct: "distinct",
		KeywordUnique:   "unique",
		KeywordExpr:     "expr",
	}[k]
	if ok {
		return s
	}
	return "<unknown search keyword>"
}

func searchKeywords() map[string]SearchKeyword {
	return map[string]SearchKeyword{
		"has_child": KeywordHasChild,
		"name":      KeywordName,
		"max":       KeywordMax,
		"min":       KeywordMin,
		"parent":    KeywordParent,
		"distinct":  KeywordDistinct,
		"unique":    KeywordUnique,
		"expr":      KeywordExpr,
	}
}

// KeywordTerms hold one `[keyword(parameters)]` search expression. Raw is
// the verbatim parameter text; Parameters is its comma-split decomposition.
// For KeywordExpr, Program holds the predicate compiled at parse time.
type KeywordTerms struct {
	Inverted   bool
	Keyword    SearchKeyword
	Raw        string
	Parameters []string
	Program    *vm.Program
}

func (kt *KeywordTerms) String() string {
	invert := ""
	if kt.Inverted {
		invert = "!"
	}
	return "[" + invert + kt.Keyword.String() + "(" + kt.Raw + ")]"
}

type CollectorOp int

const (
	CollectorNone CollectorOp = iota
	CollectorAddition
	CollectorSubtraction
	CollectorIntersection
)

func (op CollectorOp) String() string {
	switch op {
	case CollectorAddition:
		return "+"
	case CollectorSubtraction:
		return "-"
	case CollectorIntersection:
		return "&"
	}
	return ""
}

// CollectorTerms hold one `(subpath)` collector expression and the operator
// combining it with its predecessor collector.
type CollectorTerms struct {
	Expression string
	Op         CollectorOp

	path *Path
}

func (ct *CollectorTerms) String() string {
	return ct.Op.String() + "(" + ct.Expression + ")"
}

// Path returns the collector expression parsed as a YAML Path.
func (ct *CollectorTerms) Path() *Path {
	return ct.path
}

// SliceTerms hold the raw bounds of a `[min:max]` segment. Bounds stay
// strings because their meaning (integer positions for sequences, key names
// for mappings) is only known at evaluation time.
type SliceTerms struct {
	Min string
	Max string
}

func (st *SliceTerms) String() string {
	return "[" + st.Min + ":" + st.Max + "]"
}

// Segment is one parsed step of a YAML Path. Type selects which of the
// attribute fields is meaningful.
type Segment struct {
	Type      SegmentType
	Key       string
	Index     int
	Slice     *SliceTerms
	Anchor    string
	Search    *SearchTerms
	Keyword   *KeywordTerms
	Collector *CollectorTerms
}

// text renders the segment in canonical form using sep, assuming it is not
// the first segment of a dot-separated path.
func (s *Segment) text(sep Separator) string {
	sepStr := sep.String()
	switch s.Type {
	case SegmentKey:
		return sepStr + escapeSection(s.Key, sepStr)
	case SegmentIndex:
		return "[" + strconv.Itoa(s.Index) + "]"
	case SegmentSlice:
		return s.Slice.String()
	case SegmentAnchor:
		return "[&" + s.Anchor + "]"
	case SegmentMatchAll:
		return sepStr + "*"
	case SegmentTraverse:
		return sepStr + "**"
	case SegmentSearch:
		return s.Search.String()
	case SegmentKeywordSearch:
		return s.Keyword.String()
	case SegmentCollector:
		return s.Collector.String()
	}
	return ""
}

// String renders the segment alone, dot-separated form without the leading
// separator.
func (s *Segment) String() string {
	return strings.TrimPrefix(s.text(SeparatorDot), ".")
}

// ensureEscaped prefixes every occurrence of each symbol with a backslash,
// leaving already escaped occurrences alone.
func ensureEscaped(value string, symbols ...string) string {
	escaped := value
	for _, symbol := range symbols {
		replaceTerm := "\\" + symbol
		oparts := strings.Split(escaped, replaceTerm)
		eparts := make([]string, len(oparts))
		for i, opart := range oparts {
			eparts[i] = strings.ReplaceAll(opart, symbol, replaceTerm)
		}
		escaped = strings.Join(eparts, replaceTerm)
	}
	return escaped
}

// escapeSection renders a KEY inert: all symbols with YAML Path meaning are
// backslash-escaped, including the active separator.
func escapeSection(section, pathsep string) string {
	return ensureEscaped(
		section,
		"\\", pathsep, "(", ")", "[", "]", "^", "$", "%", " ", "'", "\"",
	)
}

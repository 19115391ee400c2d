package yamlpath

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/wwkimball/yamlpath/debug"
)

// Separator selects the segment separator of a YAML Path expression.
// SeparatorAuto resolves to slash when the expression starts with "/",
// dot otherwise.
type Separator int

const (
	SeparatorAuto Separator = iota
	SeparatorDot
	SeparatorSlash
)

func (s Separator) String() string {
	if s == SeparatorSlash {
		return "/"
	}
	return "."
}

// Path is a parsed YAML Path expression. A nil or empty Path addresses the
// document root.
type Path struct {
	original string
	sep      Separator
	segments []*Segment
}

// Parse parses a YAML Path expression with automatic separator detection.
func Parse(text string) (*Path, error) {
	return ParseSeparator(text, SeparatorAuto)
}

// MustParse is Parse for known-good expressions; it panics on error.
func MustParse(text string) *Path {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseSeparator parses a YAML Path expression with an explicit separator.
// Parsing is atomic: any flaw fails the whole expression with a *PathError.
func ParseSeparator(text string, sep Separator) (*Path, error) {
	if sep == SeparatorAuto {
		if strings.HasPrefix(text, "/") {
			sep = SeparatorSlash
		} else {
			sep = SeparatorDot
		}
	}
	segments, err := parsePath(text, sep)
	if err != nil {
		return nil, err
	}
	if debug.Parse() {
		debug.Logf("yamlpath: parsed %q into %d segments\n", text, len(segments))
	}
	return &Path{original: text, sep: sep, segments: segments}, nil
}

// Original returns the expression text the path was parsed from.
func (p *Path) Original() string {
	if p == nil {
		return ""
	}
	return p.original
}

// Separator returns the path's resolved separator.
func (p *Path) Separator() Separator {
	if p == nil {
		return SeparatorDot
	}
	return p.sep
}

// Segments returns the parsed segments in order. The slice is shared; do not
// modify it.
func (p *Path) Segments() []*Segment {
	if p == nil {
		return nil
	}
	return p.segments
}

func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.segments)
}

// IsRoot reports whether the path addresses the document root.
func (p *Path) IsRoot() bool {
	return p.Len() == 0
}

// String renders the canonical form of the path. Parsing the result yields
// the same segments (round-trip law).
func (p *Path) String() string {
	if p == nil {
		return ""
	}
	sep := p.sep
	if sep == SeparatorAuto {
		sep = SeparatorDot
	}
	sepStr := sep.String()
	var b strings.Builder
	if sep == SeparatorSlash {
		b.WriteString(sepStr)
	}
	addSep := false
	for _, seg := range p.segments {
		switch seg.Type {
		case SegmentKey:
			if addSep {
				b.WriteString(sepStr)
			}
			b.WriteString(escapeSection(seg.Key, sepStr))
		case SegmentMatchAll:
			if addSep {
				b.WriteString(sepStr)
			}
			b.WriteString("*")
		case SegmentTraverse:
			if addSep {
				b.WriteString(sepStr)
			}
			b.WriteString("**")
		case SegmentAnchor:
			if addSep {
				b.WriteString("[&" + seg.Anchor + "]")
			} else {
				b.WriteString("&" + seg.Anchor)
			}
		case SegmentIndex:
			b.WriteString("[" + strconv.Itoa(seg.Index) + "]")
		case SegmentSlice:
			b.WriteString(seg.Slice.String())
		case SegmentSearch:
			b.WriteString(seg.Search.String())
		case SegmentKeywordSearch:
			b.WriteString(seg.Keyword.String())
		case SegmentCollector:
			b.WriteString(seg.Collector.String())
		}
		addSep = true
	}
	return b.String()
}

// Append returns a new Path extended by seg. The receiver is unchanged.
func (p *Path) Append(seg *Segment) *Path {
	segments := make([]*Segment, 0, p.Len()+1)
	segments = append(segments, p.Segments()...)
	segments = append(segments, seg)
	res := &Path{sep: p.Separator(), segments: segments}
	res.original = res.String()
	return res
}

// AppendKey returns a new Path extended by a KEY segment.
func (p *Path) AppendKey(key string) *Path {
	return p.Append(&Segment{Type: SegmentKey, Key: key})
}

// AppendIndex returns a new Path extended by an INDEX segment.
func (p *Path) AppendIndex(i int) *Path {
	return p.Append(&Segment{Type: SegmentIndex, Index: i})
}

// AppendText parses raw as a single segment group and returns the extended
// path.
func (p *Path) AppendText(raw string) (*Path, error) {
	sep := p.Separator()
	text := p.String()
	if strings.HasPrefix(raw, "[") || text == "" || text == "/" {
		text += raw
	} else {
		text += sep.String() + raw
	}
	return ParseSeparator(text, sep)
}

// Pop returns the path without its final segment, plus that segment. The
// root path pops to itself and nil.
func (p *Path) Pop() (*Path, *Segment) {
	n := p.Len()
	if n == 0 {
		return p, nil
	}
	last := p.segments[n-1]
	res := &Path{sep: p.Separator(), segments: p.segments[:n-1]}
	res.original = res.String()
	return res, last
}

// Equals reports whether two paths address the same nodes, separator aside.
func (p *Path) Equals(o *Path) bool {
	if p.Len() != o.Len() {
		return false
	}
	for i := range p.Segments() {
		if p.segments[i].text(SeparatorDot) != o.segments[i].text(SeparatorDot) {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix's segments lead p's.
func (p *Path) HasPrefix(prefix *Path) bool {
	if prefix.Len() > p.Len() {
		return false
	}
	for i := range prefix.Segments() {
		if p.segments[i].text(SeparatorDot) != prefix.segments[i].text(SeparatorDot) {
			return false
		}
	}
	return true
}

const segNone SegmentType = -1

// parsePath breaks a YAML Path expression into typed segments. It is a
// single pass over the characters with a demarcation stack tracking quotes,
// brackets, and collector parentheses.
func parsePath(yamlPath string, sep Separator) ([]*Segment, error) {
	var (
		segments        []*Segment
		segmentID       strings.Builder
		segmentType     = segNone
		demarcStack     []byte
		escapeNext      bool
		searchInverted  bool
		searchMethod    = SearchMethod(-1)
		searchAttr      string
		searchKeyword   = SearchKeyword(-1)
		seekingRegex    bool
		capturingRegex  bool
		collectorLevel  int
		collectorOp     = CollectorNone
		seekingColOp    bool
		nextCharMustBe  byte
		seekingAnchor   bool
		pathsep         = sep.String()[0]
	)

	if yamlPath == "" {
		return nil, nil
	}

	appendSegment := func(seg *Segment) {
		segments = append(segments, seg)
	}
	flush := func() error {
		seg, err := expandSplats(yamlPath, segmentID.String(), segmentType)
		if err != nil {
			return err
		}
		appendSegment(seg)
		segmentID.Reset()
		return nil
	}

	firstAnchorPos := 0
	if sep == SeparatorSlash && len(yamlPath) > 1 {
		firstAnchorPos = 1
	}
	seekingAnchor = yamlPath[firstAnchorPos] == '&'

	for charIdx := 0; charIdx < len(yamlPath); charIdx++ {
		char := yamlPath[charIdx]
		demarcCount := len(demarcStack)
		if nextCharMustBe != 0 && char == nextCharMustBe {
			nextCharMustBe = 0
		}

		switch {
		case escapeNext:
			// capture this escaped character
			escapeNext = false

		case capturingRegex:
			// capture everything that is not the present regex delimiter;
			// the delimiter itself cannot be escaped, which is exactly why
			// the user gets to choose it
			if char == demarcStack[demarcCount-1] {
				capturingRegex = false
				demarcStack = demarcStack[:demarcCount-1]
				continue
			}

		// the escape test must come after the regex capture test so regex
		// authors are spared the backslash plague
		case char == '\\':
			escapeNext = true
			continue

		case char == ' ' &&
			(demarcCount < 1 ||
				(demarcStack[demarcCount-1] != '\'' && demarcStack[demarcCount-1] != '"')):
			// ignore unescaped, non-demarcated whitespace
			continue

		case seekingRegex:
			// this first non-space symbol is the regex delimiter
			seekingRegex = false
			capturingRegex = true
			demarcStack = append(demarcStack, char)
			continue

		case seekingAnchor && char == '&':
			seekingAnchor = false
			segmentType = SegmentAnchor
			continue

		case seekingColOp && (char == '+' || char == '-' || char == '&'):
			seekingColOp = false
			nextCharMustBe = '('
			switch char {
			case '+':
				collectorOp = CollectorAddition
			case '-':
				collectorOp = CollectorSubtraction
			case '&':
				collectorOp = CollectorIntersection
			}
			continue

		case nextCharMustBe != 0 && char != nextCharMustBe:
			return nil, pathErrf(yamlPath, charIdx,
				"invalid character %q where %q is required", char, nextCharMustBe)

		case char == '"' || char == '\'':
			if demarcCount > 0 {
				if char == demarcStack[demarcCount-1] {
					// close a matching pair
					demarcStack = demarcStack[:demarcCount-1]
					demarcCount--

					// record the segment when all pairs have closed
					if demarcCount < 1 {
						if segmentID.Len() > 0 {
							if segmentType == segNone {
								segmentType = SegmentKey
							}
							// demarcated text is literal, no splat expansion
							appendSegment(plainSegment(segmentID.String(), segmentType))
						}
						segmentID.Reset()
						segmentType = segNone
						continue
					}
				} else {
					// embed a nested, demarcated component
					demarcStack = append(demarcStack, char)
				}
			} else {
				// fresh demarcated value
				demarcStack = append(demarcStack, char)
				continue
			}

		case char == '(':
			if demarcCount == 1 && demarcStack[0] == '[' && segmentID.Len() > 0 {
				keyword, known := searchKeywords()[segmentID.String()]
				if !known {
					return nil, pathErrf(yamlPath, charIdx-segmentID.Len(),
						"unknown search keyword %q", segmentID.String())
				}
				demarcStack = append(demarcStack, char)
				segmentType = SegmentKeywordSearch
				searchKeyword = keyword
				segmentID.Reset()
				continue
			}

			if collectorLevel == 0 && segmentID.Len() > 0 {
				if segmentType == segNone {
					segmentType = SegmentKey
				}
				if err := flush(); err != nil {
					return nil, err
				}
			}

			seekingColOp = false
			collectorLevel++
			demarcStack = append(demarcStack, char)
			segmentType = SegmentCollector

			// preserve nested collectors verbatim
			if collectorLevel == 1 {
				continue
			}

		case demarcCount > 0 && char == ')' && segmentType == SegmentKeywordSearch:
			demarcStack = demarcStack[:demarcCount-1]
			nextCharMustBe = ']'
			seekingColOp = false
			continue

		case demarcCount > 0 && char == ')' &&
			demarcStack[demarcCount-1] == '(' && collectorLevel > 0:
			collectorLevel--
			demarcStack = demarcStack[:demarcCount-1]

			if collectorLevel < 1 {
				terms, err := newCollectorTerms(yamlPath, charIdx, segmentID.String(), collectorOp)
				if err != nil {
					return nil, err
				}
				appendSegment(&Segment{Type: SegmentCollector, Collector: terms})
				segmentID.Reset()
				collectorOp = CollectorNone
				seekingColOp = true
				continue
			}

		case demarcCount == 0 && char == '[':
			// array INDEX/SLICE or SEARCH
			if segmentID.Len() > 0 {
				if segmentType == segNone {
					segmentType = SegmentKey
				}
				if err := flush(); err != nil {
					return nil, err
				}
			}

			demarcStack = append(demarcStack, char)
			segmentType = SegmentIndex
			seekingColOp = false
			seekingAnchor = true
			searchInverted = false
			searchMethod = -1
			searchAttr = ""
			continue

		case demarcCount == 1 && demarcStack[0] == '[' && isSearchOpChar(char):
			method, err := applySearchOpChar(
				yamlPath, charIdx, char,
				&searchInverted, searchMethod, &searchAttr, &segmentID)
			if err != nil {
				return nil, err
			}
			searchMethod = method
			if searchMethod == MethodRegex {
				seekingRegex = true
			}
			if searchMethod != -1 && char != '!' {
				segmentType = SegmentSearch
			}
			continue

		case char == '[':
			// track bracket nesting
			demarcStack = append(demarcStack, char)

		case demarcCount == 1 && char == ']' && demarcStack[0] == '[':
			// store the INDEX, SLICE, SEARCH, or KEYWORD_SEARCH parameters
			seg, err := closeBracketSegment(
				yamlPath, charIdx, segmentID.String(), segmentType,
				searchInverted, searchMethod, searchAttr, searchKeyword)
			if err != nil {
				return nil, err
			}
			appendSegment(seg)
			segmentID.Reset()
			segmentType = segNone
			demarcStack = demarcStack[:demarcCount-1]
			searchMethod = -1
			searchInverted = false
			searchKeyword = -1
			continue

		case char == ']':
			// track bracket de-nesting
			if demarcCount > 0 {
				demarcStack = demarcStack[:demarcCount-1]
			}

		case demarcCount < 1 && char == pathsep:
			// do not store empty elements
			if segmentID.Len() > 0 {
				if segmentType == segNone {
					segmentType = SegmentKey
				}
				if err := flush(); err != nil {
					return nil, err
				}
			}
			segmentType = segNone
			seekingAnchor = true
			continue
		}

		segmentID.WriteByte(char)
		seekingAnchor = false
		seekingColOp = false
	}

	if collectorLevel > 0 {
		return nil, pathErrf(yamlPath, len(yamlPath),
			"unmatched collector pair in expression")
	}
	if capturingRegex {
		return nil, pathErrf(yamlPath, len(yamlPath),
			"unterminated regular expression in expression")
	}
	if len(demarcStack) > 0 {
		return nil, pathErrf(yamlPath, len(yamlPath),
			"unmatched demarcation mark(s) remain open: %q", string(demarcStack))
	}

	if segmentID.Len() > 0 {
		if segmentType == segNone {
			segmentType = SegmentKey
		}
		seg, err := expandSplats(yamlPath, segmentID.String(), segmentType)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	return segments, nil
}

func isSearchOpChar(char byte) bool {
	switch char {
	case '=', '^', '$', '%', '!', '>', '<', '~':
		return true
	}
	return false
}

// applySearchOpChar folds one hash-attribute search operator character into
// the pending method, consuming the accumulated segment text as the search
// attribute where the grammar requires an operand.
func applySearchOpChar(
	yamlPath string, charIdx int, char byte,
	inverted *bool, method SearchMethod, attr *string, segmentID *strings.Builder,
) (SearchMethod, error) {
	takeOperand := func() error {
		if segmentID.Len() == 0 {
			return pathErrf(yamlPath, charIdx,
				"missing search operand before operator %q", char)
		}
		*attr = segmentID.String()
		segmentID.Reset()
		return nil
	}

	switch char {
	case '!':
		if *inverted {
			return method, pathErrf(yamlPath, charIdx,
				"double search inversion is meaningless")
		}
		*inverted = true
		return method, nil

	case '=':
		// exact value match, or the tail of >=, <=, ==
		switch method {
		case MethodLessThan:
			return MethodLessOrEqual, nil
		case MethodGreaterThan:
			return MethodGreaterOrEqual, nil
		case MethodEquals:
			return MethodEquals, nil
		case -1:
			if err := takeOperand(); err != nil {
				return method, err
			}
			return MethodEquals, nil
		}
		return method, pathErrf(yamlPath, charIdx,
			"unsupported search operator combination")

	case '~':
		if method == MethodEquals {
			return MethodRegex, nil
		}
		return method, pathErrf(yamlPath, charIdx,
			"unexpected %q; use =~ to search with a regular expression", char)
	}

	// all remaining operators require an operand
	if err := takeOperand(); err != nil {
		return method, err
	}
	switch char {
	case '^':
		return MethodStartsWith, nil
	case '$':
		return MethodEndsWith, nil
	case '%':
		return MethodContains, nil
	case '>':
		return MethodGreaterThan, nil
	case '<':
		return MethodLessThan, nil
	}
	return method, pathErrf(yamlPath, charIdx, "unsupported search operator %q", char)
}

// closeBracketSegment finalizes the segment accumulated within one [...]
// group.
func closeBracketSegment(
	yamlPath string, charIdx int, segmentID string, segmentType SegmentType,
	inverted bool, method SearchMethod, attr string, keyword SearchKeyword,
) (*Segment, error) {
	switch {
	case segmentType == SegmentIndex && !strings.Contains(segmentID, ":"):
		idx, err := strconv.Atoi(segmentID)
		if err != nil {
			return nil, pathErrf(yamlPath, charIdx,
				"not an integer index: %q", segmentID)
		}
		return &Segment{Type: SegmentIndex, Index: idx}, nil

	case segmentType == SegmentIndex:
		parts := strings.SplitN(segmentID, ":", 2)
		return &Segment{
			Type:  SegmentSlice,
			Slice: &SliceTerms{Min: parts[0], Max: parts[1]},
		}, nil

	case segmentType == SegmentSearch && method != -1:
		// undemarcate the search term, if it is so
		if len(segmentID) > 1 &&
			(segmentID[0] == '\'' || segmentID[0] == '"') &&
			segmentID[len(segmentID)-1] == segmentID[0] {
			segmentID = segmentID[1 : len(segmentID)-1]
		}
		terms := &SearchTerms{
			Inverted:  inverted,
			Method:    method,
			Attribute: attr,
			Term:      segmentID,
		}
		if method == MethodRegex {
			re, err := regexp.Compile(segmentID)
			if err != nil {
				return nil, pathErrf(yamlPath, charIdx,
					"invalid regular expression %q: %v", segmentID, err)
			}
			terms.Regexp = re
		}
		return &Segment{Type: SegmentSearch, Search: terms}, nil

	case segmentType == SegmentKeywordSearch && keyword != -1:
		terms, err := newKeywordTerms(yamlPath, charIdx, inverted, keyword, segmentID)
		if err != nil {
			return nil, err
		}
		return &Segment{Type: SegmentKeywordSearch, Keyword: terms}, nil

	case segmentType == SegmentAnchor:
		return &Segment{Type: SegmentAnchor, Anchor: segmentID}, nil
	}

	return nil, pathErrf(yamlPath, charIdx,
		"unsupported bracketed segment %q", segmentID)
}

func newCollectorTerms(
	yamlPath string, charIdx int, expression string, op CollectorOp,
) (*CollectorTerms, error) {
	sub, err := Parse(expression)
	if err != nil {
		return nil, pathErrf(yamlPath, charIdx,
			"invalid collector expression %q: %v", expression, err)
	}
	return &CollectorTerms{Expression: expression, Op: op, path: sub}, nil
}

func newKeywordTerms(
	yamlPath string, charIdx int, inverted bool, keyword SearchKeyword, raw string,
) (*KeywordTerms, error) {
	params, err := parseKeywordParameters(raw)
	if err != nil {
		return nil, pathErrf(yamlPath, charIdx, "%v", err)
	}
	terms := &KeywordTerms{
		Inverted:   inverted,
		Keyword:    keyword,
		Raw:        raw,
		Parameters: params,
	}
	if keyword == KeywordExpr {
		prg, err := expr.Compile(raw, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, pathErrf(yamlPath, charIdx,
				"invalid expr predicate %q: %v", raw, err)
		}
		terms.Program = prg
	}
	return terms, nil
}

// parseKeywordParameters splits keyword-search parameter text on commas,
// honoring quoting and backslash escapes.
func parseKeywordParameters(raw string) ([]string, error) {
	var (
		param       strings.Builder
		params      []string
		escapeNext  bool
		demarcStack []byte
	)
	for i := 0; i < len(raw); i++ {
		char := raw[i]
		demarcCount := len(demarcStack)

		switch {
		case escapeNext:
			escapeNext = false

		case char == '\\':
			escapeNext = true
			continue

		case char == ' ' && demarcCount < 1:
			continue

		case char == '"' || char == '\'':
			if demarcCount > 0 {
				if char == demarcStack[demarcCount-1] {
					demarcStack = demarcStack[:demarcCount-1]
					if len(demarcStack) < 1 {
						continue
					}
				} else {
					demarcStack = append(demarcStack, char)
				}
			} else {
				demarcStack = append(demarcStack, char)
				continue
			}

		case demarcCount < 1 && char == ',':
			params = append(params, param.String())
			param.Reset()
			continue
		}

		param.WriteByte(char)
	}

	if len(demarcStack) > 0 {
		return nil, &PathError{
			Msg: "keyword search parameters contain unmatched demarcation" +
				" symbol(s): " + string(demarcStack),
		}
	}
	if param.Len() > 0 {
		params = append(params, param.String())
	}
	return params, nil
}

// expandSplats rewrites segment text containing * into search or traversal
// segments.
func expandSplats(yamlPath, segmentID string, segmentType SegmentType) (*Segment, error) {
	if !strings.Contains(segmentID, "*") {
		return plainSegment(segmentID, segmentType), nil
	}

	splatCount := strings.Count(segmentID, "*")
	splatPos := strings.Index(segmentID, "*")
	segmentLen := len(segmentID)
	switch {
	case splatCount == 1 && segmentLen == 1:
		return &Segment{Type: SegmentMatchAll}, nil
	case splatCount == 1 && splatPos == 0:
		// *text matches values ending with text
		return searchSegment(MethodEndsWith, segmentID[1:]), nil
	case splatCount == 1 && splatPos == segmentLen-1:
		// text* matches values starting with text
		return searchSegment(MethodStartsWith, segmentID[:splatPos]), nil
	case splatCount == 1:
		// te*xt becomes the regex ^te.*xt$
		term := "^" + segmentID[:splatPos] + ".*" + segmentID[splatPos+1:] + "$"
		return regexSearchSegment(yamlPath, term)
	case splatCount == 2 && segmentLen == 2:
		return &Segment{Type: SegmentTraverse}, nil
	}

	// multi-wildcard search
	var term strings.Builder
	term.WriteString("^")
	wasSplat := false
	for i := 0; i < segmentLen; i++ {
		if segmentID[i] == '*' {
			if wasSplat {
				return nil, &PathError{
					Msg: "the ** traversal operator has no meaning when" +
						" combined with other characters",
					Path:    yamlPath,
					Segment: segmentID,
				}
			}
			wasSplat = true
			term.WriteString(".*")
		} else {
			wasSplat = false
			term.WriteByte(segmentID[i])
		}
	}
	term.WriteString("$")
	return regexSearchSegment(yamlPath, term.String())
}

func plainSegment(segmentID string, segmentType SegmentType) *Segment {
	switch segmentType {
	case SegmentAnchor:
		return &Segment{Type: SegmentAnchor, Anchor: segmentID}
	default:
		return &Segment{Type: SegmentKey, Key: segmentID}
	}
}

func searchSegment(method SearchMethod, term string) *Segment {
	return &Segment{Type: SegmentSearch, Search: &SearchTerms{
		Method:    method,
		Attribute: ".",
		Term:      term,
	}}
}

func regexSearchSegment(yamlPath, term string) (*Segment, error) {
	re, err := regexp.Compile(term)
	if err != nil {
		return nil, &PathError{
			Msg:  "invalid wildcard expansion: " + err.Error(),
			Path: yamlPath,
		}
	}
	return &Segment{Type: SegmentSearch, Search: &SearchTerms{
		Method:    MethodRegex,
		Attribute: ".",
		Term:      term,
		Regexp:    re,
	}}, nil
}

// StripPathPrefix removes prefix from path when path starts with it. The
// root prefix "/" strips to nothing.
func StripPathPrefix(path, prefix *Path) *Path {
	if prefix == nil || prefix.IsRoot() {
		return path
	}
	if !path.HasPrefix(prefix) {
		return path
	}
	res := &Path{
		sep:      path.Separator(),
		segments: path.Segments()[prefix.Len():],
	}
	res.original = res.String()
	return res
}

package yamlpath

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wwkimball/yamlpath/ir"
)

// searchMatches evaluates one search method against a haystack node, without
// inversion. Comparisons are numeric whenever the haystack holds a number,
// string-wise otherwise.
func searchMatches(method SearchMethod, needle string, haystack *ir.Node) bool {
	if haystack == nil {
		return false
	}
	switch haystack.Kind {
	case ir.MappingKind, ir.SequenceKind:
		return false
	case ir.NullKind:
		return false
	}

	hayStr := haystack.ScalarString()

	switch method {
	case MethodEquals:
		if hayNum, ok := numericValue(haystack); ok {
			needleNum, err := strconv.ParseFloat(needle, 64)
			if err != nil {
				return false
			}
			return hayNum == needleNum
		}
		return hayStr == needle

	case MethodStartsWith:
		return strings.HasPrefix(hayStr, needle)

	case MethodEndsWith:
		return strings.HasSuffix(hayStr, needle)

	case MethodContains:
		return strings.Contains(hayStr, needle)

	case MethodGreaterThan, MethodLessThan, MethodGreaterOrEqual, MethodLessOrEqual:
		if hayNum, ok := numericValue(haystack); ok {
			needleNum, err := strconv.ParseFloat(needle, 64)
			if err != nil {
				return false
			}
			return compareOrdered(method, hayNum, needleNum)
		}
		return compareOrdered(method, hayStr, needle)

	case MethodRegex:
		re, err := regexp.Compile(needle)
		if err != nil {
			return false
		}
		return re.FindStringIndex(hayStr) != nil
	}
	return false
}

// searchTermsMatch applies full SearchTerms to a haystack node, including
// inversion and the pre-compiled regex.
func searchTermsMatch(terms *SearchTerms, haystack *ir.Node) bool {
	var matches bool
	if terms.Method == MethodRegex && terms.Regexp != nil {
		matches = haystack != nil &&
			haystack.Kind.IsScalar() &&
			terms.Regexp.FindStringIndex(haystack.ScalarString()) != nil
	} else {
		matches = searchMatches(terms.Method, terms.Term, haystack)
	}
	return (matches && !terms.Inverted) || (terms.Inverted && !matches)
}

func numericValue(node *ir.Node) (float64, bool) {
	if node.Kind != ir.NumberKind {
		return 0, false
	}
	return node.AsFloat()
}

func compareOrdered[T float64 | string](method SearchMethod, hay, needle T) bool {
	switch method {
	case MethodGreaterThan:
		return hay > needle
	case MethodLessThan:
		return hay < needle
	case MethodGreaterOrEqual:
		return hay >= needle
	case MethodLessOrEqual:
		return hay <= needle
	}
	return false
}

// nodeIsAoH reports whether node is a sequence whose elements are all
// mappings (an array of hashes). acceptNulls tolerates null elements.
func nodeIsAoH(node *ir.Node, acceptNulls bool) bool {
	if node == nil || node.Kind != ir.SequenceKind || len(node.Values) == 0 {
		return false
	}
	for _, ele := range node.Values {
		if acceptNulls && ele.Kind == ir.NullKind {
			continue
		}
		if ele.Kind != ir.MappingKind {
			return false
		}
	}
	return true
}

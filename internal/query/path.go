package query

import (
	"strconv"
	"strings"
)

// BuildPath renders the container form (jsonpath, ending in the last "->")
// and the text form (accesspath, ending in "->>") of a dotted path rooted
// at root (the JSONB column, or an $elemMatch alias such as "elem"/
// "elem_val"). Numeric segments (array indices) are emitted unquoted;
// non-numeric segments are single-quoted. A single-segment path degenerates
// to root->'k' / root->>'k'.
func BuildPath(root, dotted string) (jsonpath, accesspath string) {
	segments := strings.Split(dotted, ".")

	var container strings.Builder
	container.WriteString(root)
	for _, seg := range segments[:len(segments)-1] {
		container.WriteString("->")
		container.WriteString(pathSegment(seg))
	}

	last := pathSegment(segments[len(segments)-1])

	jsonpath = container.String() + "->" + last
	accesspath = container.String() + "->>" + last
	return jsonpath, accesspath
}

// pathSegment renders one dotted-path component as an integer accessor if
// it is a bare non-negative/negative integer, otherwise as a single-quoted
// string literal.
func pathSegment(seg string) string {
	if _, err := strconv.Atoi(seg); err == nil {
		return seg
	}
	return QuoteLiteral(seg)
}

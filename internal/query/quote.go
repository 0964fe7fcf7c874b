package query

import "strings"

// QuoteIdent escapes a SQL identifier by doubling embedded double quotes and
// wrapping the result in double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral escapes a SQL string literal by doubling embedded single
// quotes and wrapping the result in single quotes.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// EscapeLiteralBody doubles embedded single quotes without adding the
// surrounding quotes, for callers that build up a larger quoted literal
// (e.g. PathLiteral's '{...}' JSONB path array).
func EscapeLiteralBody(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// PathLiteral builds a JSONB text-path array literal from dotted path
// segments, e.g. ["wallet"] -> '{"wallet"}' and ["profile","level"] ->
// '{"profile","level"}'. Each segment is rendered as its own
// double-quoted JSON string (doubled for the outer single-quoted SQL
// literal), matching jsonb_set_lax's '{a,b}'::text[] path argument shape.
func PathLiteral(segments []string) string {
	quoted := make([]string, len(segments))
	for i, s := range segments {
		quoted[i] = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	body := strings.Join(quoted, ",")
	return "'{" + EscapeLiteralBody(body) + "}'"
}

package query

import (
	"regexp"
	"strconv"
)

// placeholderPattern matches a positional parameter placeholder "$N". A
// splice (e.g. appending an independently-compiled UPDATE SET expression
// after a WHERE clause) renumbers the second fragment's placeholders by
// regex substitution rather than re-parsing or re-compiling the SQL, per
// §4.9 and §9's design guidance.
var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// Renumber rewrites every "$N" placeholder in sql to "$(N+offset)". Used to
// splice a fragment compiled against its own parameter vector (placeholders
// starting at $1) into a larger statement whose parameter vector already holds `offset`
// values.
func Renumber(sql string, offset int) string {
	if offset == 0 {
		return sql
	}
	return placeholderPattern.ReplaceAllStringFunc(sql, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil {
			return m
		}
		return "$" + strconv.Itoa(n+offset)
	})
}

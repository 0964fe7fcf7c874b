package query

import "fmt"

// UnsupportedOperatorError is returned when a query document names an
// operator the compiler does not implement (§7 UnsupportedOperator).
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("query: unsupported operator %q", e.Operator)
}

// InvalidOperandError is returned when an operator is given an operand shape
// it cannot compile, e.g. $regex on a non-string, or $exists inside
// primitive-mode $elemMatch (§9 open question: this must error rather than
// silently compile to a null-sensitive comparison with no jsonpath to test).
type InvalidOperandError struct {
	Operator string
	Reason   string
}

func (e *InvalidOperandError) Error() string {
	return fmt.Sprintf("query: invalid operand for %s: %s", e.Operator, e.Reason)
}

// HardQueryError is returned for operators that are explicitly out of scope
// and must fail loudly rather than compile to an approximation or be
// silently skipped: $where is the only such operator. $text compiles to a
// trivially-true match instead, and other unrecognized $-operators ($search,
// $geoNear, ...) are logged and skipped rather than erroring.
type HardQueryError struct {
	Operator string
}

func (e *HardQueryError) Error() string {
	return fmt.Sprintf("query: %s is not supported by this compiler", e.Operator)
}

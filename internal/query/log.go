package query

import "log/slog"

// logUnsupportedOperator records that a non-fatal unsupported operator was
// skipped during compilation (§4.6/§4.3): the compiled Fragment for that key
// contributes no constraint (EmptyFragment) rather than aborting the whole
// compile, so this is the only trace left behind.
func logUnsupportedOperator(op string) {
	slog.Warn("query: skipping unsupported operator", "operator", op)
}

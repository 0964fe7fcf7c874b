package query

import "strings"

// Fragment is an intermediate SQL boolean expression together with the
// symbolic tokens Empty (no constraint), True, and False, so that callers
// can short-circuit without parsing generated SQL text back out.
//
// At most one of Empty/True/False is set; when none are set, SQL holds a
// boolean SQL expression.
type Fragment struct {
	Empty bool
	True  bool
	False bool
	SQL   string
}

// EmptyFragment is the canonical "no constraint" value.
var EmptyFragment = Fragment{Empty: true}

// TrueFragment is the canonical literal-TRUE value.
var TrueFragment = Fragment{True: true}

// FalseFragment is the canonical literal-FALSE value.
var FalseFragment = Fragment{False: true}

// SQLFragment wraps a raw boolean SQL expression.
func SQLFragment(sql string) Fragment {
	return Fragment{SQL: sql}
}

// IsNoop reports whether the fragment contributes no constraint, i.e. it is
// Empty or trivially True.
func (f Fragment) IsNoop() bool {
	return f.Empty || f.True
}

// Render returns the SQL text for the fragment: "TRUE"/"FALSE" for the
// symbolic tokens, "" for Empty, or the raw SQL otherwise.
func (f Fragment) Render() string {
	switch {
	case f.True:
		return "TRUE"
	case f.False:
		return "FALSE"
	case f.Empty:
		return ""
	default:
		return f.SQL
	}
}

// Wrap parenthesizes a non-trivial fragment's SQL; TRUE/FALSE/Empty pass
// through unchanged since parenthesizing a symbolic token is meaningless.
func (f Fragment) Wrap() Fragment {
	if f.Empty || f.True || f.False {
		return f
	}
	return SQLFragment("(" + f.SQL + ")")
}

// And folds fragments with AND semantics: FALSE short-circuits to FALSE,
// Empty/TRUE children are dropped, a single surviving child is returned
// unbracketed, and two-or-more are joined with " AND " inside one pair of
// parentheses. A fully-empty fold (every child was Empty/TRUE) returns
// TrueFragment so that callers can tell "vacuously true" from "no
// children at all" the same way.
func And(fragments ...Fragment) Fragment {
	var kept []string
	for _, f := range fragments {
		if f.False {
			return FalseFragment
		}
		if f.Empty || f.True {
			continue
		}
		kept = append(kept, f.SQL)
	}
	switch len(kept) {
	case 0:
		return TrueFragment
	case 1:
		return SQLFragment(kept[0])
	default:
		return SQLFragment("(" + strings.Join(kept, " AND ") + ")")
	}
}

// Or folds fragments with OR semantics: TRUE short-circuits to TRUE,
// Empty/FALSE children are dropped, one surviving child is returned
// unbracketed, two-or-more are joined with " OR " inside one pair of
// parentheses, and no survivors yields FalseFragment.
func Or(fragments ...Fragment) Fragment {
	var kept []string
	for _, f := range fragments {
		if f.True {
			return TrueFragment
		}
		if f.Empty || f.False {
			continue
		}
		kept = append(kept, f.SQL)
	}
	switch len(kept) {
	case 0:
		return FalseFragment
	case 1:
		return SQLFragment(kept[0])
	default:
		return SQLFragment("(" + strings.Join(kept, " OR ") + ")")
	}
}

// Nor is Or followed by negation: empty input is TRUE (vacuous $nor),
// all-TRUE collapses to FALSE, otherwise NOT ( <or> ).
func Nor(fragments ...Fragment) Fragment {
	if len(fragments) == 0 {
		return TrueFragment
	}
	return Not(Or(fragments...))
}

// Not negates a fragment: Empty/TRUE negate to FALSE, FALSE negates to
// TRUE, otherwise wraps as NOT (...).
func Not(f Fragment) Fragment {
	switch {
	case f.Empty || f.True:
		return FalseFragment
	case f.False:
		return TrueFragment
	default:
		return SQLFragment("NOT (" + f.SQL + ")")
	}
}

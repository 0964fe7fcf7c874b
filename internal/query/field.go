package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/exp/slices"
)

// BuildFieldOperators compiles one field's operator object (§4.3) — e.g.
// {"age": {"$gt": 21, "$lt": 65}} — into a single Fragment, ANDing together
// the fragment produced by each operator key. root is the compile state's
// JSON column ("data" unless overridden); dotted is the field's dotted path.
func BuildFieldOperators(st *State, root, dotted string, ops map[string]Operand) (Fragment, error) {
	jsonpath, accesspath := BuildPath(root, dotted)

	var parts []Fragment
	if pattern, ok := ops["$regex"]; ok {
		frag, err := buildRegex(accesspath, pattern, ops["$options"])
		if err != nil {
			return Fragment{}, err
		}
		parts = append(parts, frag)
	}

	for op, v := range ops {
		if op == "$regex" || op == "$options" {
			continue
		}
		frag, err := buildOperator(st, jsonpath, accesspath, op, v)
		if err != nil {
			return Fragment{}, err
		}
		parts = append(parts, frag)
	}
	return And(parts...), nil
}

func buildOperator(st *State, jsonpath, accesspath, op string, v Operand) (Fragment, error) {
	switch op {
	case "$eq":
		return BuildEquality(st, accesspath, jsonpath, v), nil

	case "$ne":
		return buildNe(st, accesspath, jsonpath, v), nil

	case "$gt":
		return buildCompare(accesspath, ">", v)
	case "$gte":
		return buildCompare(accesspath, ">=", v)
	case "$lt":
		return buildCompare(accesspath, "<", v)
	case "$lte":
		return buildCompare(accesspath, "<=", v)

	case "$in":
		return buildIn(st, jsonpath, accesspath, v), nil
	case "$nin":
		return Not(buildIn(st, jsonpath, accesspath, v)), nil

	case "$exists":
		if v.Kind != KindBool {
			return Fragment{}, &InvalidOperandError{Operator: op, Reason: "requires a boolean"}
		}
		if v.Bool {
			return SQLFragment(jsonpath + " IS NOT NULL"), nil
		}
		return SQLFragment(jsonpath + " IS NULL"), nil

	case "$regex":
		return Fragment{}, &InvalidOperandError{Operator: op, Reason: "$regex must be paired in the same operator object, use $regex with $options or a regex literal"}

	case "$mod":
		return buildMod(accesspath, v)

	case "$size":
		if !v.IsNumber() {
			return Fragment{}, &InvalidOperandError{Operator: op, Reason: "requires a number"}
		}
		return SQLFragment(fmt.Sprintf("jsonb_array_length(%s) = %d", jsonpath, int64(v.NumberValue()))), nil

	case "$all":
		return buildAll(jsonpath, v)

	case "$type":
		if v.Kind != KindString {
			return Fragment{}, &InvalidOperandError{Operator: op, Reason: "requires a string type name"}
		}
		return SQLFragment(fmt.Sprintf("jsonb_typeof(%s) = %s", jsonpath, QuoteLiteral(v.Str))), nil

	case "$not":
		return buildNot(st, jsonpath, accesspath, v)

	case "$elemMatch":
		if v.Kind != KindObject {
			return Fragment{}, &InvalidOperandError{Operator: op, Reason: "requires an object"}
		}
		return BuildElemMatch(st, jsonpath, v.Obj)

	case "$where":
		return Fragment{}, &HardQueryError{Operator: op}
	case "$search", "$geoNear":
		logUnsupportedOperator(op)
		return EmptyFragment, nil

	default:
		return Fragment{}, &UnsupportedOperatorError{Operator: op}
	}
}

// buildRegex handles the {"$regex": ..., "$options": ...} pairing,
// which must be compiled together since $options alone is meaningless.
func buildRegex(accesspath string, pattern Operand, opts Operand) (Fragment, error) {
	var patStr string
	switch pattern.Kind {
	case KindString:
		patStr = pattern.Str
	case KindRegex:
		patStr = pattern.Regex
		if opts.Kind != KindString {
			opts = Operand{Kind: KindString, Str: pattern.ReFlags}
		}
	case KindArray:
		if len(pattern.Arr) == 0 || len(pattern.Arr) > 2 || pattern.Arr[0].Kind != KindString {
			return Fragment{}, &InvalidOperandError{Operator: "$regex", Reason: "array form must be [pattern] or [pattern, flags]"}
		}
		patStr = pattern.Arr[0].Str
		if len(pattern.Arr) == 2 && pattern.Arr[1].Kind == KindString {
			opts = pattern.Arr[1]
		}
	default:
		return Fragment{}, &InvalidOperandError{Operator: "$regex", Reason: "must be a string, a [pattern, flags] array or a regex literal"}
	}

	op := "~"
	if opts.Kind == KindString && strings.Contains(opts.Str, "i") {
		op = "~*"
	}
	return SQLFragment(fmt.Sprintf("%s %s %s", accesspath, op, QuoteLiteral(patStr))), nil
}

func buildCompare(accesspath string, op string, v Operand) (Fragment, error) {
	switch v.Kind {
	case KindInt:
		return SQLFragment(fmt.Sprintf("(%s)::integer %s %d", accesspath, op, v.Int)), nil
	case KindFloat:
		if isWholeNumber(v.Float) {
			return SQLFragment(fmt.Sprintf("(%s)::integer %s %d", accesspath, op, int64(v.Float))), nil
		}
		return SQLFragment(fmt.Sprintf("(%s)::numeric %s %s", accesspath, op, formatFloat(v.Float))), nil
	case KindString:
		return SQLFragment(fmt.Sprintf("%s %s %s", accesspath, op, QuoteLiteral(v.Str))), nil
	default:
		return Fragment{}, &InvalidOperandError{Operator: op, Reason: "requires a number or string operand"}
	}
}

func buildMod(accesspath string, v Operand) (Fragment, error) {
	if v.Kind != KindArray || len(v.Arr) != 2 {
		return Fragment{}, &InvalidOperandError{Operator: "$mod", Reason: "requires a 2-element array [divisor, remainder]"}
	}
	divisor, remainder := v.Arr[0], v.Arr[1]
	if !divisor.IsNumber() || !remainder.IsNumber() {
		return Fragment{}, &InvalidOperandError{Operator: "$mod", Reason: "divisor and remainder must be numbers"}
	}
	return SQLFragment(fmt.Sprintf("(%s)::numeric %% %s = %s", accesspath, formatNumber(divisor), formatNumber(remainder))), nil
}

func buildAll(jsonpath string, v Operand) (Fragment, error) {
	if v.Kind != KindArray {
		return Fragment{}, &InvalidOperandError{Operator: "$all", Reason: "requires an array"}
	}
	if len(v.Arr) == 0 {
		return FalseFragment, nil
	}
	lit := jsonArrayLiteral(v.Arr)
	return SQLFragment(fmt.Sprintf("%s @> %s::jsonb", jsonpath, lit)), nil
}

func buildNot(st *State, jsonpath, accesspath string, v Operand) (Fragment, error) {
	switch v.Kind {
	case KindRegex:
		frag, err := buildRegex(accesspath, v, Operand{Kind: KindString, Str: v.ReFlags})
		if err != nil {
			return Fragment{}, err
		}
		return Not(frag), nil
	case KindObject:
		parts := make([]Fragment, 0, len(v.Obj))
		for op, opv := range v.Obj {
			f, err := buildOperator(st, jsonpath, accesspath, op, opv)
			if err != nil {
				return Fragment{}, err
			}
			parts = append(parts, f)
		}
		return Not(And(parts...)), nil
	default:
		return Fragment{}, &InvalidOperandError{Operator: "$not", Reason: "requires an operator object or regex literal"}
	}
}

// buildNe implements $ne (§4.3): unlike $eq, it must use IS DISTINCT FROM
// rather than NOT(... = ...), since a missing field's accesspath is SQL
// NULL and NOT(NULL = $N) evaluates to NULL (excluding the row) where
// Mongo's $ne semantics require the row to match.
func buildNe(st *State, accesspath, jsonpath string, v Operand) Fragment {
	switch v.Kind {
	case KindUndefined, KindNull:
		return Not(BuildEquality(st, accesspath, jsonpath, v))
	case KindObject:
		if len(v.Obj) == 0 {
			return SQLFragment(jsonpath + "::jsonb IS DISTINCT FROM '{}'::jsonb")
		}
		idx := st.Append(marshalOperand(v))
		return SQLFragment(fmt.Sprintf("%s::jsonb IS DISTINCT FROM $%d::jsonb", jsonpath, idx))
	case KindArray:
		idx := st.Append(marshalOperand(v))
		return SQLFragment(fmt.Sprintf("%s::jsonb IS DISTINCT FROM $%d::jsonb", jsonpath, idx))
	case KindBool:
		idx := st.Append(v.Bool)
		return SQLFragment(fmt.Sprintf("(%s)::boolean IS DISTINCT FROM $%d", accesspath, idx))
	case KindInt:
		idx := st.Append(v.Int)
		return SQLFragment(fmt.Sprintf("(%s)::integer IS DISTINCT FROM $%d", accesspath, idx))
	case KindFloat:
		if isWholeNumber(v.Float) {
			idx := st.Append(int64(v.Float))
			return SQLFragment(fmt.Sprintf("(%s)::integer IS DISTINCT FROM $%d", accesspath, idx))
		}
		idx := st.Append(v.Float)
		return SQLFragment(fmt.Sprintf("(%s)::numeric IS DISTINCT FROM $%d", accesspath, idx))
	default: // KindString and anything else falls back to plain text compare
		idx := st.Append(v.Str)
		return SQLFragment(fmt.Sprintf("%s IS DISTINCT FROM $%d", accesspath, idx))
	}
}

func buildIn(st *State, jsonpath, accesspath string, v Operand) Fragment {
	if v.Kind != KindArray || len(v.Arr) == 0 {
		return FalseFragment
	}

	var nulls, bools []bool
	var ints []int64
	var floats []float64
	var strs []string
	var others []Fragment

	for _, e := range v.Arr {
		switch e.Kind {
		case KindNull, KindUndefined:
			nulls = append(nulls, true)
		case KindBool:
			bools = append(bools, e.Bool)
		case KindInt:
			ints = append(ints, e.Int)
		case KindFloat:
			floats = append(floats, e.Float)
		case KindString:
			strs = append(strs, e.Str)
		default:
			others = append(others, BuildEquality(st, accesspath, jsonpath, e))
		}
	}

	var groups []Fragment
	if len(nulls) > 0 {
		groups = append(groups, SQLFragment("("+jsonpath+" IS NULL OR "+jsonpath+" = 'null'::jsonb)"))
	}
	if len(bools) > 0 {
		bools = dedupBools(bools)
		idx := st.Append(pq.Array(bools))
		groups = append(groups, SQLFragment(fmt.Sprintf("(%s)::boolean = ANY($%d)", accesspath, idx)))
	}
	if len(ints) > 0 {
		slices.Sort(ints)
		ints = slices.Compact(ints)
		idx := st.Append(pq.Array(ints))
		groups = append(groups, SQLFragment(fmt.Sprintf("(%s)::integer = ANY($%d)", accesspath, idx)))
	}
	if len(floats) > 0 {
		slices.Sort(floats)
		floats = slices.Compact(floats)
		idx := st.Append(pq.Array(floats))
		groups = append(groups, SQLFragment(fmt.Sprintf("(%s)::numeric = ANY($%d)", accesspath, idx)))
	}
	if len(strs) > 0 {
		slices.Sort(strs)
		strs = slices.Compact(strs)
		idx := st.Append(pq.Array(strs))
		groups = append(groups, SQLFragment(fmt.Sprintf("%s = ANY($%d)", accesspath, idx)))
	}
	groups = append(groups, others...)

	return Or(groups...)
}

// dedupBools collapses a set of booleans to at most [false, true], in that
// order, since slices.Sort/Compact don't apply to a non-ordered type.
func dedupBools(bools []bool) []bool {
	var hasFalse, hasTrue bool
	for _, b := range bools {
		if b {
			hasTrue = true
		} else {
			hasFalse = true
		}
	}
	var out []bool
	if hasFalse {
		out = append(out, false)
	}
	if hasTrue {
		out = append(out, true)
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatNumber(v Operand) string {
	if v.Kind == KindInt {
		return strconv.FormatInt(v.Int, 10)
	}
	return formatFloat(v.Float)
}

func jsonArrayLiteral(arr []Operand) string {
	items := make([]string, len(arr))
	for i, e := range arr {
		items[i] = string(marshalOperand(e))
	}
	return QuoteLiteral("[" + strings.Join(items, ",") + "]")
}

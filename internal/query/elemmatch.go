package query

import "fmt"

// elemAlias is the row alias used when unnesting an array with
// jsonb_array_elements for object-mode $elemMatch compilation, keeping each
// element as jsonb so nested field paths still resolve against it. Primitive
// mode unnests with jsonb_array_elements_text instead, binding each element
// as elemValAlias directly as text: there is no nested field path to walk,
// so there's no need to keep the jsonb wrapper around a scalar.
const (
	elemAlias    = "elem"
	elemValAlias = "elem_val"
)

// BuildElemMatch compiles §4.5: $elemMatch runs in "object mode" when every
// key of obj names a document field (compiled against each unnested array
// element as if it were a top-level document), and in "primitive mode" when
// every key is itself a $-operator (compiled directly against the scalar
// array element).
func BuildElemMatch(st *State, jsonpath string, obj map[string]Operand) (Fragment, error) {
	if isOperatorOperandMap(obj) {
		return buildElemMatchPrimitive(st, jsonpath, obj)
	}
	return buildElemMatchObject(st, jsonpath, obj)
}

func isOperatorOperandMap(obj map[string]Operand) bool {
	if len(obj) == 0 {
		return false
	}
	for k := range obj {
		if len(k) == 0 || k[0] != '$' {
			return false
		}
	}
	return true
}

// buildElemMatchObject compiles each field of obj against elem, the jsonb
// value bound by unnesting jsonpath, the same way document-level fields are
// compiled against the top-level row.
func buildElemMatchObject(st *State, jsonpath string, obj map[string]Operand) (Fragment, error) {
	var parts []Fragment
	for field, v := range obj {
		frag, err := CompileField(st, elemAlias, field, v)
		if err != nil {
			return Fragment{}, err
		}
		parts = append(parts, frag)
	}
	inner := And(parts...)
	return wrapElemMatchExists(jsonpath, elemAlias, "jsonb_array_elements", inner), nil
}

// buildElemMatchPrimitive compiles an operator object directly against the
// scalar array element, e.g. {"tags": {"$elemMatch": {"$gt": 3}}}. The array
// is unnested with jsonb_array_elements_text so elem_val is already a text
// scalar, not jsonb, matching what a primitive element actually is. $exists
// and a bare null-sensitive $eq are rejected: there is no sub-path to test
// for presence inside a primitive array element, so silently compiling
// either would misrepresent the query rather than reject it (§9).
func buildElemMatchPrimitive(st *State, jsonpath string, obj map[string]Operand) (Fragment, error) {
	var parts []Fragment
	for op, v := range obj {
		if op == "$exists" {
			return Fragment{}, &InvalidOperandError{Operator: op, Reason: "$exists is not meaningful inside a primitive-mode $elemMatch"}
		}
		if op == "$eq" && (v.Kind == KindNull || v.Kind == KindUndefined) {
			return Fragment{}, &InvalidOperandError{Operator: op, Reason: "null-sensitive $eq is not meaningful inside a primitive-mode $elemMatch"}
		}
		frag, err := buildOperator(st, elemValAlias, elemValAlias, op, v)
		if err != nil {
			return Fragment{}, err
		}
		parts = append(parts, frag)
	}
	inner := And(parts...)
	return wrapElemMatchExists(jsonpath, elemValAlias, "jsonb_array_elements_text", inner), nil
}

// wrapElemMatchExists wraps a compiled inner condition in an EXISTS
// subquery over jsonpath, unnested with unnestFn and binding each element
// as alias.
func wrapElemMatchExists(jsonpath, alias, unnestFn string, inner Fragment) Fragment {
	if inner.False {
		return FalseFragment
	}
	innerSQL := "TRUE"
	if !inner.IsNoop() {
		innerSQL = inner.SQL
	}
	sql := fmt.Sprintf("EXISTS (SELECT 1 FROM %s(%s) AS %s WHERE %s)", unnestFn, jsonpath, alias, innerSQL)
	return SQLFragment(sql)
}

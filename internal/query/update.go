package query

import (
	"fmt"
	"sort"
	"strings"
)

// BuildUpdate implements §4.8: folds an update document's $set and $inc
// operators into a single nested jsonb_set_lax expression assigning the
// JSONB column, using the compile state's own parameter vector so the
// caller can later splice this expression after a WHERE clause and
// renumber its placeholders with Renumber.
//
// $set writes each path to a literal value; $inc reads the path's current
// numeric value out of the original column (not the expression being
// built, which hasn't executed yet), adds the operand, and re-wraps it with
// to_jsonb. Any other update operator ($push, $pull, $unset, $rename, ...)
// is out of scope and reported as unsupported.
func buildUpdateExpr(st *State, root string, update map[string]Operand) (string, error) {
	expr := root
	var err error

	if setDoc, ok := update["$set"]; ok {
		if setDoc.Kind != KindObject {
			return "", &InvalidOperandError{Operator: "$set", Reason: "requires a document"}
		}
		expr, err = foldSet(st, expr, setDoc.Obj)
		if err != nil {
			return "", err
		}
	}
	if incDoc, ok := update["$inc"]; ok {
		if incDoc.Kind != KindObject {
			return "", &InvalidOperandError{Operator: "$inc", Reason: "requires a document"}
		}
		expr, err = foldInc(st, root, expr, incDoc.Obj)
		if err != nil {
			return "", err
		}
	}

	for op := range update {
		if op != "$set" && op != "$inc" {
			return "", &UnsupportedOperatorError{Operator: op}
		}
	}

	if len(update) == 0 {
		return "", &InvalidOperandError{Operator: "$set", Reason: "update document has no recognized operators"}
	}

	return expr, nil
}

func foldSet(st *State, acc string, fields map[string]Operand) (string, error) {
	for _, field := range sortedKeys(fields) {
		v := fields[field]
		path := PathLiteral(strings.Split(field, "."))
		idx := st.Append(marshalOperand(v))
		acc = fmt.Sprintf("jsonb_set_lax(%s::jsonb, %s, $%d::jsonb, true)", acc, path, idx)
	}
	return acc, nil
}

// foldInc folds $inc onto acc, the expression accumulated so far (possibly
// already wrapping a $set chain). current is built against root, the
// original column, not acc: the increment must read the value as it's
// stored before this compound expression overwrites it, not the
// not-yet-evaluated SQL text of the expression being built (§4.8).
func foldInc(st *State, root, acc string, fields map[string]Operand) (string, error) {
	for _, field := range sortedKeys(fields) {
		v := fields[field]
		if !v.IsNumber() {
			return "", &InvalidOperandError{Operator: "$inc", Reason: "increment amount must be a number"}
		}
		path := PathLiteral(strings.Split(field, "."))
		current := fmt.Sprintf("coalesce((%s #>> %s)::numeric, 0)", root, path)
		idx := st.Append(v.NumberValue())
		acc = fmt.Sprintf("jsonb_set_lax(%s::jsonb, %s, to_jsonb(%s + $%d), true)", acc, path, current, idx)
	}
	return acc, nil
}

func sortedKeys(m map[string]Operand) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

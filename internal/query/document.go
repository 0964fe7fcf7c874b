package query

import "strings"

// CompileDocument implements §4.6: compiles one MongoDB-shaped query
// document into a single Fragment, dispatching each key either as a
// document-scope logical combinator ($and/$or/$nor/$not) or as an ordinary
// field match, then ANDing the results together. An empty document
// compiles to TrueFragment, which BuildWhere/BuildSelect treat as "no WHERE
// clause" rather than emitting a literal "WHERE TRUE".
func CompileDocument(st *State, root string, doc map[string]Operand) (Fragment, error) {
	var parts []Fragment
	for key, v := range doc {
		frag, err := compileDocumentKey(st, root, key, v)
		if err != nil {
			return Fragment{}, err
		}
		parts = append(parts, frag)
	}
	return And(parts...), nil
}

func compileDocumentKey(st *State, root, key string, v Operand) (Fragment, error) {
	switch key {
	case "$and":
		return compileLogicalArray(st, root, v, And, "$and")
	case "$or":
		return compileLogicalArray(st, root, v, Or, "$or")
	case "$nor":
		return compileLogicalArray(st, root, v, Nor, "$nor")
	case "$not":
		if v.Kind != KindObject {
			return Fragment{}, &InvalidOperandError{Operator: "$not", Reason: "requires a document at document scope"}
		}
		inner, err := CompileDocument(st, root, v.Obj)
		if err != nil {
			return Fragment{}, err
		}
		return Not(inner), nil
	case "$where":
		return Fragment{}, &HardQueryError{Operator: key}
	case "$text":
		// Full-text search can't be expressed as a WHERE-clause filter term;
		// rather than aborting compilation, the document matches trivially
		// and callers are expected to apply full-text ranking separately.
		return TrueFragment, nil
	default:
		if strings.HasPrefix(key, "$") {
			logUnsupportedOperator(key)
			return EmptyFragment, nil
		}
		return CompileField(st, root, key, v)
	}
}

// compileLogicalArray compiles each element of v (which must be an array of
// subdocuments, possibly empty) and folds the results with combine.
func compileLogicalArray(st *State, root string, v Operand, combine func(...Fragment) Fragment, op string) (Fragment, error) {
	if v.Kind != KindArray {
		return Fragment{}, &InvalidOperandError{Operator: op, Reason: "requires an array of documents"}
	}
	frags := make([]Fragment, 0, len(v.Arr))
	for _, elem := range v.Arr {
		if elem.Kind != KindObject {
			return Fragment{}, &InvalidOperandError{Operator: op, Reason: "array elements must be documents"}
		}
		frag, err := CompileDocument(st, root, elem.Obj)
		if err != nil {
			return Fragment{}, err
		}
		frags = append(frags, frag)
	}
	return combine(frags...), nil
}

// CompileField compiles a single document field against an operand: an
// operator object ({"$gt": 5}) dispatches through BuildFieldOperators, a
// regex literal compiles to a pattern match, and anything else is a direct
// equality match (§4.2/§4.3). Shared by top-level document compilation and
// $elemMatch's object mode (§4.5), where root is the unnested array
// element's alias instead of the JSONB column.
func CompileField(st *State, root, field string, v Operand) (Fragment, error) {
	if v.Kind == KindObject && isOperatorOperandMap(v.Obj) {
		return BuildFieldOperators(st, root, field, v.Obj)
	}
	jsonpath, accesspath := BuildPath(root, field)
	if v.Kind == KindRegex {
		return buildRegex(accesspath, v, Operand{Kind: KindString, Str: v.ReFlags})
	}
	return BuildEquality(st, accesspath, jsonpath, v), nil
}

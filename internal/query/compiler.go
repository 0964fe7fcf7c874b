package query

import "fmt"

// BuildOptions configures BuildSelect's statement assembly (§4.7): sort
// order, pagination, a row cap, and the JSONB column name (§6), which
// defaults to "data" when left empty.
type BuildOptions struct {
	JSONField string
	Sort      []SortKey
	Limit     int
	Offset    int
}

// SortKey names one ORDER BY term: a dotted field path and direction.
type SortKey struct {
	Field string
	Desc  bool
}

// BuildWhere compiles a MongoDB-shaped query document into a WHERE clause
// (including the leading "WHERE " keyword) and its parameter vector. An
// empty or vacuously-true query document returns ("", nil): callers splice
// this directly after a table reference with no further conditionals.
// jsonField overrides the JSONB column name, defaulting to "data".
func BuildWhere(query map[string]any, jsonField string) (string, []any, error) {
	st := NewState(jsonField)
	doc := Classify(query)
	if doc.Kind != KindObject {
		return "", nil, &InvalidOperandError{Operator: "query", Reason: "top-level query must be a document"}
	}
	frag, err := CompileDocument(st, st.JSONField, doc.Obj)
	if err != nil {
		return "", nil, err
	}
	if frag.IsNoop() {
		return "", nil, nil
	}
	return "WHERE " + frag.Render(), st.Params, nil
}

// BuildSelect assembles a full SELECT statement over table (§4.7): the
// compiled WHERE clause plus ORDER BY/LIMIT/OFFSET from opts.
func BuildSelect(table string, query map[string]any, opts BuildOptions) (string, []any, error) {
	jsonField := opts.JSONField
	if jsonField == "" {
		jsonField = "data"
	}

	where, params, err := BuildWhere(query, jsonField)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT id, %s, created_at FROM %s", QuoteIdent(jsonField), QuoteIdent(table))
	if where != "" {
		sql += " " + where
	}
	if len(opts.Sort) > 0 {
		sql += " ORDER BY " + renderOrderBy(jsonField, opts.Sort)
	}
	if opts.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}
	return sql, params, nil
}

func renderOrderBy(jsonField string, keys []SortKey) string {
	terms := make([]string, len(keys))
	for i, k := range keys {
		_, accesspath := BuildPath(jsonField, k.Field)
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		terms[i] = accesspath + " " + dir
	}
	out := terms[0]
	for _, t := range terms[1:] {
		out += ", " + t
	}
	return out
}

// BuildUpdate compiles an update document's $set/$inc operators into a
// single JSONB-assignment expression and its parameter vector. A nil/empty
// update document (no recognized operators) is reported as an error rather
// than silently producing a no-op assignment, matching §7's
// EmptyDestructive guard against accidental full-row no-ops.
func BuildUpdate(update map[string]any, jsonField string) (string, []any, error) {
	if jsonField == "" {
		jsonField = "data"
	}
	st := NewState(jsonField)
	doc := Classify(update)
	if doc.Kind != KindObject {
		return "", nil, &InvalidOperandError{Operator: "update", Reason: "update must be a document"}
	}
	expr, err := buildUpdateExpr(st, st.JSONField, doc.Obj)
	if err != nil {
		return "", nil, err
	}
	return jsonField + " = " + expr, st.Params, nil
}

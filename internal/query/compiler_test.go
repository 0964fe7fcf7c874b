package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere_EmptyQueryHasNoClause(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{}, "")
	require.NoError(t, err)
	assert.Equal(t, "", sql)
	assert.Nil(t, params)
}

func TestBuildWhere_SimpleEquality(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"status": "active"}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE data->>'status' = $1", sql)
	assert.Equal(t, []any{"active"}, params)
}

func TestBuildWhere_NestedPath(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{"metadata.user.address.country": "US"}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE data->'metadata'->'user'->'address'->>'country' = $1", sql)
}

func TestBuildWhere_IntVsNumericCast(t *testing.T) {
	sqlInt, _, err := BuildWhere(map[string]any{"age": 30}, "")
	require.NoError(t, err)
	assert.Contains(t, sqlInt, "::integer = $1")

	sqlFloat, _, err := BuildWhere(map[string]any{"age": 30.5}, "")
	require.NoError(t, err)
	assert.Contains(t, sqlFloat, "::numeric = $1")
}

func TestBuildWhere_WholeNumberFloatCastsAsInteger(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{"age": 30.0}, "")
	require.NoError(t, err)
	assert.Contains(t, sql, "::integer = $1")
}

func TestBuildWhere_AndEmptyArrayIsTrue(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"$and": []any{}}, "")
	require.NoError(t, err)
	assert.Equal(t, "", sql)
	assert.Nil(t, params)
}

func TestBuildWhere_OrEmptyArrayIsFalse(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{"$or": []any{}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE FALSE", sql)
}

func TestBuildWhere_NinEmptyArrayIsTrue(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"tags": map[string]any{"$nin": []any{}}}, "")
	require.NoError(t, err)
	assert.Equal(t, "", sql)
	assert.Nil(t, params)
}

func TestBuildWhere_InEmptyArrayIsFalse(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{"tags": map[string]any{"$in": []any{}}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE FALSE", sql)
}

func TestBuildWhere_GtIsInlinedNotParameterized(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"age": map[string]any{"$gt": 21}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE (data->>'age')::integer > 21", sql)
	assert.Empty(t, params)
}

func TestBuildWhere_SizeIsInlined(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"tags": map[string]any{"$size": 3}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE jsonb_array_length(data->'tags') = 3", sql)
	assert.Empty(t, params)
}

func TestBuildWhere_InGroupsByType(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"code": map[string]any{"$in": []any{1, 2, "a"}}}, "")
	require.NoError(t, err)
	assert.Contains(t, sql, "::integer = ANY($1)")
	assert.Contains(t, sql, "ANY($2)")
	require.Len(t, params, 2)
}

func TestBuildWhere_InSeparatesIntFromWholeNumberFloat(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{
		"values": map[string]any{"$in": []any{1, "two", nil, 3.0}},
	}, "")
	require.NoError(t, err)
	assert.Contains(t, sql, "(data->>'values')::integer = ANY($1)")
	assert.Contains(t, sql, "(data->>'values')::numeric = ANY($2)")
	assert.Contains(t, sql, "data->>'values' = ANY($3)")
	require.Len(t, params, 3)
}

func TestBuildWhere_AndCombinesMultipleFields(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{
		"$and": []any{
			map[string]any{"status": "active"},
			map[string]any{"age": map[string]any{"$gte": 18}},
		},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE (data->>'status' = $1 AND (data->>'age')::integer >= 18)", sql)
	assert.Equal(t, []any{"active"}, params)
}

func TestBuildWhere_NeUsesIsDistinctFrom(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"age": map[string]any{"$ne": 30}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE (data->>'age')::integer IS DISTINCT FROM $1", sql)
	assert.Equal(t, []any{int64(30)}, params)
}

func TestBuildWhere_NeIncludesDocumentsMissingTheField(t *testing.T) {
	// IS DISTINCT FROM (unlike NOT(... = ...)) evaluates to TRUE when the
	// accesspath is SQL NULL, i.e. the field is absent, matching Mongo's
	// $ne semantics for missing fields.
	sql, _, err := BuildWhere(map[string]any{"age": map[string]any{"$ne": 30}}, "")
	require.NoError(t, err)
	assert.Contains(t, sql, "IS DISTINCT FROM")
	assert.NotContains(t, sql, "NOT (")
}

func TestBuildWhere_NotNegatesField(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{"age": map[string]any{"$not": map[string]any{"$gt": 21}}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE NOT ((data->>'age')::integer > 21)", sql)
}

func TestBuildWhere_ElemMatchObjectMode(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{
		"items": map[string]any{
			"$elemMatch": map[string]any{"sku": "X1", "qty": map[string]any{"$gt": 0}},
		},
	}, "")
	require.NoError(t, err)
	assert.Contains(t, sql, "EXISTS (SELECT 1 FROM jsonb_array_elements(data->'items') AS elem WHERE")
}

func TestBuildWhere_ElemMatchPrimitiveModeRejectsExists(t *testing.T) {
	_, _, err := BuildWhere(map[string]any{
		"tags": map[string]any{"$elemMatch": map[string]any{"$exists": true}},
	}, "")
	require.Error(t, err)
	var invalidErr *InvalidOperandError
	assert.ErrorAs(t, err, &invalidErr)
}

func TestBuildWhere_ElemMatchPrimitiveModeUsesTextUnnest(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{
		"tags": map[string]any{"$elemMatch": map[string]any{"$gt": 3}},
	}, "")
	require.NoError(t, err)
	assert.Contains(t, sql, "EXISTS (SELECT 1 FROM jsonb_array_elements_text(data->'tags') AS elem_val WHERE")
	assert.NotContains(t, sql, "#>> '{}'")
}

func TestBuildWhere_UnknownOperatorErrors(t *testing.T) {
	_, _, err := BuildWhere(map[string]any{"age": map[string]any{"$bogus": 1}}, "")
	require.Error(t, err)
	var unsupported *UnsupportedOperatorError
	assert.ErrorAs(t, err, &unsupported)
}

func TestBuildWhere_WhereOperatorIsHardError(t *testing.T) {
	_, _, err := BuildWhere(map[string]any{"$where": "this.a == this.b"}, "")
	require.Error(t, err)
}

func TestBuildUpdate_SetFoldsIntoJSONBSetLax(t *testing.T) {
	expr, params, err := BuildUpdate(map[string]any{"$set": map[string]any{"wallet": 42}}, "")
	require.NoError(t, err)
	assert.Equal(t, `data = jsonb_set_lax(data::jsonb, '{"wallet"}', $1::jsonb, true)`, expr)
	require.Len(t, params, 1)
}

func TestBuildUpdate_SetAndIncFoldTogether(t *testing.T) {
	expr, params, err := BuildUpdate(map[string]any{
		"$set": map[string]any{"profile.level": 2},
		"$inc": map[string]any{"wallet": 10},
	}, "")
	require.NoError(t, err)
	assert.Contains(t, expr, `'{"profile","level"}'`)
	assert.Contains(t, expr, "jsonb_set_lax(jsonb_set_lax(data::jsonb,")
	require.Len(t, params, 2)
}

func TestBuildUpdate_IncReadsCurrentValueFromOriginalColumn(t *testing.T) {
	// $inc must read its "current" value against the original column, not
	// against the $set expression chain that precedes it in the same
	// update, since that chain hasn't executed yet at read time.
	expr, _, err := BuildUpdate(map[string]any{
		"$set": map[string]any{"wallet": 42},
		"$inc": map[string]any{"score": 1},
	}, "")
	require.NoError(t, err)
	assert.Contains(t, expr, `coalesce((data #>> '{"score"}')::numeric, 0)`)
	assert.NotContains(t, expr, `coalesce((jsonb_set_lax`)
}

func TestBuildUpdate_EmptyUpdateErrors(t *testing.T) {
	_, _, err := BuildUpdate(map[string]any{}, "")
	require.Error(t, err)
}

func TestBuildUpdate_UnsupportedOperatorErrors(t *testing.T) {
	_, _, err := BuildUpdate(map[string]any{"$push": map[string]any{"tags": "x"}}, "")
	require.Error(t, err)
	var unsupported *UnsupportedOperatorError
	assert.ErrorAs(t, err, &unsupported)
}

func TestBuildWhere_ModIsInlined(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"count": map[string]any{"$mod": []any{4, 0}}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE (data->>'count')::numeric % 4 = 0", sql)
	assert.Empty(t, params)
}

func TestBuildWhere_ModRejectsWrongArity(t *testing.T) {
	_, _, err := BuildWhere(map[string]any{"count": map[string]any{"$mod": []any{4}}}, "")
	require.Error(t, err)
	var invalidErr *InvalidOperandError
	assert.ErrorAs(t, err, &invalidErr)
}

func TestBuildWhere_AllIsInlinedContainment(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"tags": map[string]any{"$all": []any{"a", "b"}}}, "")
	require.NoError(t, err)
	assert.Equal(t, `WHERE data->'tags' @> '["a","b"]'::jsonb`, sql)
	assert.Empty(t, params)
}

func TestBuildWhere_AllEmptyArrayIsFalse(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{"tags": map[string]any{"$all": []any{}}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE FALSE", sql)
}

func TestBuildWhere_TypeIsInlined(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"tags": map[string]any{"$type": "array"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE jsonb_typeof(data->'tags') = 'array'", sql)
	assert.Empty(t, params)
}

func TestBuildWhere_RegexWithOptionsIsCaseInsensitive(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{"name": map[string]any{"$regex": "^jo", "$options": "i"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE data->>'name' ~* '^jo'", sql)
}

func TestBuildWhere_RegexWithoutOptionsIsCaseSensitive(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{"name": map[string]any{"$regex": "^jo"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE data->>'name' ~ '^jo'", sql)
}

func TestBuildWhere_RegexEscapesSingleQuotes(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{"name": map[string]any{"$regex": "it's"}}, "")
	require.NoError(t, err)
	assert.Contains(t, sql, `'it''s'`)
}

func TestBuildWhere_NorNegatesEveryBranch(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{
		"$nor": []any{
			map[string]any{"status": "archived"},
			map[string]any{"status": "deleted"},
		},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE NOT ((data->>'status' = $1 OR data->>'status' = $2))", sql)
}

func TestBuildWhere_DeeplyNestedAndOr(t *testing.T) {
	sql, _, err := BuildWhere(map[string]any{
		"$and": []any{
			map[string]any{"$or": []any{
				map[string]any{"status": "active"},
				map[string]any{"status": "pending"},
			}},
			map[string]any{"age": map[string]any{"$gte": 18}},
		},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE ((data->>'status' = $1 OR data->>'status' = $2) AND (data->>'age')::integer >= 18)", sql)
}

func TestBuildWhere_TextSearchCompilesTriviallyTrue(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{"$text": map[string]any{"$search": "foo"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "", sql)
	assert.Nil(t, params)
}

func TestBuildWhere_UnrecognizedDollarKeyLogsAndSkips(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{
		"status":   "active",
		"$geoNear": map[string]any{"near": []any{0, 0}},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "WHERE data->>'status' = $1", sql)
	assert.Equal(t, []any{"active"}, params)
}

func TestBuildWhere_SearchFieldOperatorLogsAndSkips(t *testing.T) {
	sql, params, err := BuildWhere(map[string]any{
		"name": map[string]any{"$search": "foo"},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "", sql)
	assert.Nil(t, params)
}

func TestBuildSelect_JSONFieldOverridesDefaultColumn(t *testing.T) {
	sql, params, err := BuildSelect("widgets", map[string]any{"status": "active"}, BuildOptions{JSONField: "payload"})
	require.NoError(t, err)
	assert.Contains(t, sql, `SELECT id, "payload", created_at FROM`)
	assert.Contains(t, sql, "payload->>'status' = $1")
	assert.Equal(t, []any{"active"}, params)
}

func TestBuildSelect_SortUsesJSONFieldOverride(t *testing.T) {
	sql, _, err := BuildSelect("widgets", map[string]any{}, BuildOptions{
		JSONField: "payload",
		Sort:      []SortKey{{Field: "created"}},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY payload->>'created' ASC")
}

func TestRenumber(t *testing.T) {
	assert.Equal(t, "$3 = $4", Renumber("$1 = $2", 2))
	assert.Equal(t, "$1 = $2", Renumber("$1 = $2", 0))
}

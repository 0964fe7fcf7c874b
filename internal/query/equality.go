package query

import (
	"encoding/json"
	"fmt"
)

// BuildEquality implements §4.2: given the text and container forms of a
// field's access path and a classified operand, emit the equality
// condition MongoDB semantics require, appending parameters as needed.
func BuildEquality(st *State, accesspath, jsonpath string, v Operand) Fragment {
	switch v.Kind {
	case KindUndefined:
		return SQLFragment(jsonpath + " IS NULL")
	case KindNull:
		return SQLFragment("(" + jsonpath + " IS NULL OR " + jsonpath + " = 'null'::jsonb)")
	case KindObject:
		if len(v.Obj) == 0 {
			return SQLFragment(jsonpath + "::jsonb = '{}'::jsonb")
		}
		idx := st.Append(marshalOperand(v))
		return SQLFragment(fmt.Sprintf("%s::jsonb = $%d::jsonb", jsonpath, idx))
	case KindArray:
		idx := st.Append(marshalOperand(v))
		return SQLFragment(fmt.Sprintf("%s::jsonb = $%d::jsonb", jsonpath, idx))
	case KindBool:
		idx := st.Append(v.Bool)
		return SQLFragment(fmt.Sprintf("(%s)::boolean = $%d", accesspath, idx))
	case KindInt:
		idx := st.Append(v.Int)
		return SQLFragment(fmt.Sprintf("(%s)::integer = $%d", accesspath, idx))
	case KindFloat:
		if isWholeNumber(v.Float) {
			idx := st.Append(int64(v.Float))
			return SQLFragment(fmt.Sprintf("(%s)::integer = $%d", accesspath, idx))
		}
		idx := st.Append(v.Float)
		return SQLFragment(fmt.Sprintf("(%s)::numeric = $%d", accesspath, idx))
	default: // KindString and anything else falls back to plain text compare
		idx := st.Append(v.Str)
		return SQLFragment(fmt.Sprintf("%s = $%d", accesspath, idx))
	}
}

// marshalOperand renders an Operand back into a JSON-encodable Go value so
// it can be appended to the parameter vector and cast with ::jsonb.
func marshalOperand(v Operand) []byte {
	b, err := json.Marshal(toPlain(v))
	if err != nil {
		// Operands are always built from successfully-decoded JSON/BSON, so
		// re-marshaling cannot fail; this guards against a future Operand
		// variant that isn't representable.
		return []byte("null")
	}
	return b
}

// toPlain converts an Operand back to a plain Go value (map/slice/etc) for
// JSON re-marshaling.
func toPlain(v Operand) any {
	switch v.Kind {
	case KindNull, KindUndefined:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindArray:
		arr := make([]any, len(v.Arr))
		for i, e := range v.Arr {
			arr[i] = toPlain(e)
		}
		return arr
	case KindObject:
		obj := make(map[string]any, len(v.Obj))
		for k, e := range v.Obj {
			obj[k] = toPlain(e)
		}
		return obj
	default:
		return nil
	}
}

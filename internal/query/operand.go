// Package query implements the MongoDB-style query compiler: a pure,
// stateless translation from a MongoDB-shaped filter/update document into
// parameterized PostgreSQL JSONB SQL.
package query

import "go.mongodb.org/mongo-driver/bson/primitive"

// Kind tags the dynamic shape of a query/update operand. The compiler is
// schema-blind, so every comparison value is classified at compile time and
// dispatched on (operator, Kind) rather than carrying static types through
// the recursion.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindRegex
)

// Operand is the tagged-sum representation of a dynamically-typed query
// value: exactly one of the typed fields is meaningful for a given Kind.
type Operand struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Float   float64
	Str     string
	Arr     []Operand
	Obj     map[string]Operand
	Regex   string
	ReFlags string
}

// IsNumber reports whether the operand is an int or a float.
func (o Operand) IsNumber() bool {
	return o.Kind == KindInt || o.Kind == KindFloat
}

// NumberValue returns the operand's numeric value regardless of whether it
// was classified as an integer or a float.
func (o Operand) NumberValue() float64 {
	if o.Kind == KindInt {
		return float64(o.Int)
	}
	return o.Float
}

// Classify inspects the runtime type of v (as decoded from a bson.M/JSON
// query document) and produces the corresponding tagged Operand. This is
// the single boundary where dynamic-typing dispatch happens; every other
// component operates on the resulting Kind.
func Classify(v any) Operand {
	switch t := v.(type) {
	case nil:
		return Operand{Kind: KindNull}
	case Operand:
		return t
	case bool:
		return Operand{Kind: KindBool, Bool: t}
	case int:
		return Operand{Kind: KindInt, Int: int64(t)}
	case int32:
		return Operand{Kind: KindInt, Int: int64(t)}
	case int64:
		return Operand{Kind: KindInt, Int: t}
	case float32:
		return classifyFloat(float64(t))
	case float64:
		return classifyFloat(t)
	case string:
		return Operand{Kind: KindString, Str: t}
	case primitive.Regex:
		return Operand{Kind: KindRegex, Regex: t.Pattern, ReFlags: t.Options}
	case primitive.ObjectID:
		return Operand{Kind: KindString, Str: t.Hex()}
	case []any:
		arr := make([]Operand, len(t))
		for i, e := range t {
			arr[i] = Classify(e)
		}
		return Operand{Kind: KindArray, Arr: arr}
	case []string:
		arr := make([]Operand, len(t))
		for i, e := range t {
			arr[i] = Operand{Kind: KindString, Str: e}
		}
		return Operand{Kind: KindArray, Arr: arr}
	case map[string]any:
		return classifyObject(t)
	default:
		// Unknown concrete type: treat as an opaque object so that callers
		// fall back to the $all/$elemMatch-style "object" branches rather
		// than silently producing an equality on a Go %v string.
		return Operand{Kind: KindObject, Obj: map[string]Operand{}}
	}
}

// classifyFloat always tags a decoded float as KindFloat, even when its
// value happens to be a whole number. Preserving that origin distinction
// matters for $in/$nin (§4.3), which partitions array elements by their
// original JSON type rather than by value: 1 and 3.0 must land in separate
// groups. Cast selection for equality/comparison (where a whole-number
// float is meant to behave like an integer) is decided at those call
// sites via isWholeNumber, not by collapsing the Kind here.
func classifyFloat(f float64) Operand {
	return Operand{Kind: KindFloat, Float: f}
}

// isWholeNumber reports whether f has no fractional part, the test used to
// decide whether a KindFloat operand should be cast ::integer instead of
// ::numeric for equality and comparison operators.
func isWholeNumber(f float64) bool {
	return f == float64(int64(f))
}

func classifyObject(m map[string]any) Operand {
	obj := make(map[string]Operand, len(m))
	for k, v := range m {
		obj[k] = Classify(v)
	}
	return Operand{Kind: KindObject, Obj: obj}
}

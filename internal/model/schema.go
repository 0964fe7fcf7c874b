package model

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaValidator wraps a resolved JSON Schema so repeated Validate calls
// don't re-resolve $refs on every document write.
type SchemaValidator struct {
	resolved *jsonschema.Resolved
}

// NewSchemaValidator resolves schema once, ready for repeated use.
func NewSchemaValidator(schema *jsonschema.Schema) (*SchemaValidator, error) {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("model: resolve schema: %w", err)
	}
	return &SchemaValidator{resolved: resolved}, nil
}

// Validate checks doc (a decoded JSON document, i.e. map[string]any) against
// the schema, translating a jsonschema validation failure into a
// ValidationError whose Fields map carries one entry, under the empty key,
// holding the whole validation error. It does not split the failure into
// per-field entries.
func (s *SchemaValidator) Validate(doc map[string]any) error {
	if s == nil {
		return nil
	}
	if err := s.resolved.Validate(doc); err != nil {
		return &ValidationError{Fields: map[string]error{"": err}}
	}
	return nil
}

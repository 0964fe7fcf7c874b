package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a Find1/UpdateOne/Remove targets no matching
// document.
var ErrNotFound = errors.New("model: document not found")

// ErrEmptyDestructive guards UpdateMany/Remove-style bulk operations
// against an empty filter document, which would otherwise touch an entire
// collection (§7).
var ErrEmptyDestructive = errors.New("model: refusing an unfiltered bulk operation")

// OptimisticLockError is returned when Document.Save's expected _vers
// doesn't match the stored document's current version.
type OptimisticLockError struct {
	Expected int
	Actual   int
}

func (e *OptimisticLockError) Error() string {
	return fmt.Sprintf("model: optimistic lock failed: expected version %d, got %d", e.Expected, e.Actual)
}

// ValidationError reports a schema validation failure from DefineSchema's
// jsonschema. SchemaValidator stores the whole validation error as a single
// Fields entry under the empty key; failures are not split per field.
type ValidationError struct {
	Fields map[string]error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("model: validation failed for %d field(s)", len(e.Fields))
}

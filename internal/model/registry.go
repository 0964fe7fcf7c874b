package model

import (
	"context"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/jsonbstore/docdb/internal/dbpool"
)

// Registry holds every DefineSchema-registered Collection, keyed by name.
// A single Registry is meant to be shared process-wide; Collection lookup
// is safe for concurrent use from any goroutine.
type Registry struct {
	pool        *dbpool.Pool
	collections sync.Map // name -> *Collection
}

// NewRegistry binds a Registry to a connection pool.
func NewRegistry(pool *dbpool.Pool) *Registry {
	return &Registry{pool: pool}
}

// CollectionOption configures a DefineSchema call.
type CollectionOption func(*Collection)

// WithSchema attaches JSON Schema validation to Create and Document.Save
// writes against the collection. UpdateOne/UpdateMany are not validated.
func WithSchema(schema *jsonschema.Schema) CollectionOption {
	return func(c *Collection) { c.schemaDef = schema }
}

// WithSoftDelete enables soft-delete semantics (§4.7): Remove sets
// _deletedAt instead of issuing a hard DELETE, and every read implicitly
// filters out documents where _deletedAt is set. Captured once at
// DefineSchema time, per §7.
func WithSoftDelete() CollectionOption {
	return func(c *Collection) { c.softDelete = true }
}

// WithJSONField overrides the JSONB column name, default "data".
func WithJSONField(field string) CollectionOption {
	return func(c *Collection) { c.jsonField = field }
}

// DefineSchema registers a Collection bound to a table named after it;
// calling it again with an already-registered name builds a new Collection
// from the given options and replaces the earlier registration. The table
// itself is bootstrapped lazily by the collection's first Create, not at
// DefineSchema time, so DefineSchema never needs a context or touches the
// database. Find, Count, Remove and the update methods do not bootstrap the
// table and fail with the database's error if it does not exist yet.
func (r *Registry) DefineSchema(name string, opts ...CollectionOption) (*Collection, error) {
	c := &Collection{
		registry:  r,
		name:      name,
		table:     dbpool.SanitizeTableName(name),
		jsonField: "data",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.schemaDef != nil {
		validator, err := NewSchemaValidator(c.schemaDef)
		if err != nil {
			return nil, err
		}
		c.schema = validator
	}
	r.collections.Store(name, c)
	return c, nil
}

// Collection looks up a previously DefineSchema-registered collection.
func (r *Registry) Collection(name string) (*Collection, bool) {
	v, ok := r.collections.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*Collection), true
}

// ensureBootstrapped lazily creates the collection's backing table the
// first time Create runs, via sync.Once so concurrent first-callers
// don't race on CREATE TABLE.
func (c *Collection) ensureBootstrapped(ctx context.Context) error {
	var err error
	c.bootstrapOnce.Do(func() {
		err = c.registry.pool.EnsureTable(ctx, c.table)
	})
	return err
}

package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/jsonbstore/docdb/internal/query"
)

// reserved document metadata keys, stored inside the data JSONB column
// alongside user fields (§6).
const (
	fieldID        = "_id"
	fieldCreatedAt = "_ctime"
	fieldUpdatedAt = "_mtime"
	fieldVersion   = "_vers"
	fieldDeletedAt = "_deletedAt"
)

// Collection is a schema-bound handle to one JSONB table, the unit
// Create/Find/UpdateOne/Remove operate against.
type Collection struct {
	registry  *Registry
	name      string
	table     string
	jsonField string

	schemaDef *jsonschema.Schema
	schema    *SchemaValidator

	softDelete    bool
	bootstrapOnce sync.Once
}

// nowMillis returns the current time as milliseconds since epoch, the wire
// shape for _ctime/_mtime/_deletedAt (§3).
func nowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create validates doc against the collection's schema (if any), stamps
// metadata fields, and inserts it.
func (c *Collection) Create(ctx context.Context, doc map[string]any) (*Document, error) {
	if err := c.ensureBootstrapped(ctx); err != nil {
		return nil, err
	}

	if c.schema != nil {
		if err := c.schema.Validate(doc); err != nil {
			return nil, err
		}
	}

	now := nowMillis()
	stamped := make(map[string]any, len(doc)+4)
	for k, v := range doc {
		stamped[k] = v
	}
	stamped[fieldID] = fmt.Sprintf("%s_%s", c.name, primitive.NewObjectID().Hex())
	stamped[fieldCreatedAt] = now
	stamped[fieldUpdatedAt] = now
	stamped[fieldVersion] = 1

	payload, err := json.Marshal(stamped)
	if err != nil {
		return nil, fmt.Errorf("model: marshal document: %w", err)
	}

	sqlText := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1) RETURNING id, %s, created_at",
		query.QuoteIdent(c.table), query.QuoteIdent(c.jsonField), query.QuoteIdent(c.jsonField))
	row := c.registry.pool.Execer(ctx).QueryRowxContext(ctx, sqlText, payload)

	var d Document
	if err := row.Scan(&d.RowID, &d.rawData, &d.CreatedAt); err != nil {
		return nil, fmt.Errorf("model: insert into %s: %w", c.table, err)
	}
	if err := d.decode(); err != nil {
		return nil, err
	}
	d.collection = c
	return &d, nil
}

// FindOne returns the first document matching q, or (nil, nil) if none
// match. Soft-deleted documents are excluded automatically when the
// collection was defined WithSoftDelete.
func (c *Collection) FindOne(ctx context.Context, q map[string]any) (*Document, error) {
	docs, err := c.Find(ctx, q, query.BuildOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// Find1 is FindOne, but reports ErrNotFound instead of a nil document.
func (c *Collection) Find1(ctx context.Context, q map[string]any) (*Document, error) {
	doc, err := c.FindOne(ctx, q)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Find runs q against the collection and returns every matching document.
func (c *Collection) Find(ctx context.Context, q map[string]any, opts query.BuildOptions) ([]*Document, error) {
	opts.JSONField = c.jsonField
	sqlText, params, err := query.BuildSelect(c.table, c.withSoftDeleteFilter(q), opts)
	if err != nil {
		return nil, err
	}

	rows, err := c.registry.pool.Execer(ctx).QueryxContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("model: query %s: %w", c.table, err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.RowID, &d.rawData, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("model: scan %s row: %w", c.table, err)
		}
		if err := d.decode(); err != nil {
			return nil, err
		}
		d.collection = c
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// Count returns the number of documents matching q.
func (c *Collection) Count(ctx context.Context, q map[string]any) (int64, error) {
	where, params, err := query.BuildWhere(c.withSoftDeleteFilter(q), c.jsonField)
	if err != nil {
		return 0, err
	}
	sqlText := fmt.Sprintf("SELECT count(*) FROM %s", query.QuoteIdent(c.table))
	if where != "" {
		sqlText += " " + where
	}
	var n int64
	if err := c.registry.pool.Execer(ctx).QueryRowxContext(ctx, sqlText, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("model: count %s: %w", c.table, err)
	}
	return n, nil
}

// Remove deletes every document matching q: a hard DELETE by default, or a
// _deletedAt-stamping UPDATE when the collection uses soft deletes (§4.7).
// An empty q is rejected (ErrEmptyDestructive) since it would otherwise
// touch the entire collection.
func (c *Collection) Remove(ctx context.Context, q map[string]any) (int64, error) {
	if len(q) == 0 {
		return 0, ErrEmptyDestructive
	}

	where, params, err := query.BuildWhere(c.withSoftDeleteFilter(q), c.jsonField)
	if err != nil {
		return 0, err
	}

	var sqlText string
	if c.softDelete {
		update := map[string]any{"$set": map[string]any{fieldDeletedAt: nowMillis()}}
		expr, uparams, err := query.BuildUpdate(update, c.jsonField)
		if err != nil {
			return 0, err
		}
		// WHERE keeps its own $N numbering; SET's placeholders (compiled
		// independently, starting at $1) are pushed past it (§4.9).
		setExpr := query.Renumber(expr, len(params))
		params = append(params, uparams...)
		sqlText = fmt.Sprintf("UPDATE %s SET %s", query.QuoteIdent(c.table), setExpr)
		if where != "" {
			sqlText += " " + where
		}
	} else {
		sqlText = fmt.Sprintf("DELETE FROM %s", query.QuoteIdent(c.table))
		if where != "" {
			sqlText += " " + where
		}
	}

	res, err := c.registry.pool.Execer(ctx).ExecContext(ctx, sqlText, params...)
	if err != nil {
		return 0, fmt.Errorf("model: remove from %s: %w", c.table, err)
	}
	return res.RowsAffected()
}

// UpdateOne applies update to the first document matching q and returns the
// updated document.
func (c *Collection) UpdateOne(ctx context.Context, q, update map[string]any) (*Document, error) {
	n, err := c.updateMatching(ctx, q, update, 1)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return c.FindOne(ctx, q)
}

// UpdateMany applies update to every document matching q and returns the
// number of rows affected. An empty q is rejected for the same reason as
// Remove.
func (c *Collection) UpdateMany(ctx context.Context, q, update map[string]any) (int64, error) {
	if len(q) == 0 {
		return 0, ErrEmptyDestructive
	}
	return c.updateMatching(ctx, q, update, 0)
}

func (c *Collection) updateMatching(ctx context.Context, q, update map[string]any, limit int) (int64, error) {
	where, whereParams, err := query.BuildWhere(c.withSoftDeleteFilter(q), c.jsonField)
	if err != nil {
		return 0, err
	}
	expr, updateParams, err := query.BuildUpdate(update, c.jsonField)
	if err != nil {
		return 0, err
	}

	// The SET expression was compiled against its own parameter vector
	// (placeholders starting at $1); splice it before WHERE and renumber by how many params WHERE
	// already claimed (§4.9).
	offset := len(whereParams)
	setExpr := query.Renumber(expr, offset)
	params := append(append([]any{}, whereParams...), updateParams...)

	sqlText := fmt.Sprintf("UPDATE %s SET %s", query.QuoteIdent(c.table), setExpr)
	if where != "" {
		sqlText += " " + where
	}
	if limit > 0 {
		idCol := fmt.Sprintf("SELECT id FROM %s", query.QuoteIdent(c.table))
		if where != "" {
			idCol += " " + where
		}
		idCol += fmt.Sprintf(" LIMIT %d", limit)
		sqlText = fmt.Sprintf("UPDATE %s SET %s WHERE id IN (%s)", query.QuoteIdent(c.table), setExpr, idCol)
	}

	res, err := c.registry.pool.Execer(ctx).ExecContext(ctx, sqlText, params...)
	if err != nil {
		return 0, fmt.Errorf("model: update %s: %w", c.table, err)
	}
	return res.RowsAffected()
}

// withSoftDeleteFilter augments q with {_deletedAt: null} on a read/update
// path when the collection uses soft deletes, so deleted documents stay
// invisible without every caller remembering to filter them out.
func (c *Collection) withSoftDeleteFilter(q map[string]any) map[string]any {
	if !c.softDelete {
		return q
	}
	augmented := make(map[string]any, len(q)+1)
	for k, v := range q {
		augmented[k] = v
	}
	if _, exists := augmented[fieldDeletedAt]; !exists {
		augmented[fieldDeletedAt] = nil
	}
	return augmented
}

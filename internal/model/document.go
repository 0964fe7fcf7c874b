package model

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Document is one row's decoded JSONB payload plus its physical identity.
// RowID is the SERIAL primary key; Data["_id"] is the document's logical
// id, the one exposed to callers and used in query filters.
type Document struct {
	RowID     int64
	CreatedAt time.Time
	Data      map[string]any

	rawData    []byte
	collection *Collection
}

func (d *Document) decode() error {
	if len(d.rawData) == 0 {
		d.Data = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(d.rawData, &m); err != nil {
		return fmt.Errorf("model: decode document: %w", err)
	}
	d.Data = m
	return nil
}

// ID returns the document's logical _id.
func (d *Document) ID() string {
	if v, ok := d.Data[fieldID].(string); ok {
		return v
	}
	return ""
}

// Version returns the document's current _vers, for optimistic-lock checks.
func (d *Document) Version() int {
	switch v := d.Data[fieldVersion].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// Save validates Data against the collection's schema (if any) before
// issuing any SQL, then persists in-memory changes to Data back to storage,
// using $set on every top-level field except _id, _ctime and _vers, and
// bumping _vers/_mtime. If expectVersion is non-zero, a mismatch against the
// stored _vers fails with OptimisticLockError instead of silently
// overwriting a concurrent write.
func (d *Document) Save(ctx context.Context, expectVersion int) error {
	if err := d.collection.schema.Validate(d.Data); err != nil {
		return err
	}

	set := make(map[string]any, len(d.Data))
	for k, v := range d.Data {
		switch k {
		case fieldID, fieldCreatedAt, fieldVersion:
			continue
		default:
			set[k] = v
		}
	}
	set[fieldUpdatedAt] = nowMillis()
	set[fieldVersion] = d.Version() + 1

	q := map[string]any{fieldID: d.ID()}
	if expectVersion > 0 {
		q[fieldVersion] = expectVersion
	}

	n, err := d.collection.updateMatching(ctx, q, map[string]any{"$set": set}, 1)
	if err != nil {
		return err
	}
	if n == 0 {
		if expectVersion > 0 {
			current, findErr := d.collection.FindOne(ctx, map[string]any{fieldID: d.ID()})
			if findErr == nil && current != nil {
				return &OptimisticLockError{Expected: expectVersion, Actual: current.Version()}
			}
		}
		return ErrNotFound
	}
	d.Data[fieldVersion] = set[fieldVersion]
	d.Data[fieldUpdatedAt] = set[fieldUpdatedAt]
	return nil
}

// Remove deletes this document by its logical _id (hard or soft, per the
// collection's configuration).
func (d *Document) Remove(ctx context.Context) error {
	n, err := d.collection.Remove(ctx, map[string]any{fieldID: d.ID()})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Populate re-reads the document's stored state by _id, refreshing Data and
// RowID/CreatedAt in place — e.g. after another writer has touched it — and
// then hydrates each field named in refs: a field holding another
// document's _id (or an array of _ids) is replaced with that document's (or
// those documents') Data, resolved against the same collection. A ref field
// holding neither a string nor an array of strings, or one that resolves to
// no document, is left as-is.
func (d *Document) Populate(ctx context.Context, refs ...string) error {
	fresh, err := d.collection.Find1(ctx, map[string]any{fieldID: d.ID()})
	if err != nil {
		return err
	}
	d.RowID = fresh.RowID
	d.CreatedAt = fresh.CreatedAt
	d.Data = fresh.Data

	for _, field := range refs {
		if err := d.populateRef(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) populateRef(ctx context.Context, field string) error {
	raw, ok := d.Data[field]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		ref, err := d.collection.FindOne(ctx, map[string]any{fieldID: v})
		if err != nil {
			return err
		}
		if ref != nil {
			d.Data[field] = ref.Data
		}
	case []any:
		hydrated := make([]any, len(v))
		for i, elem := range v {
			hydrated[i] = elem
			id, ok := elem.(string)
			if !ok {
				continue
			}
			ref, err := d.collection.FindOne(ctx, map[string]any{fieldID: id})
			if err != nil {
				return err
			}
			if ref != nil {
				hydrated[i] = ref.Data
			}
		}
		d.Data[field] = hydrated
	}
	return nil
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithSoftDeleteFilter_Disabled(t *testing.T) {
	c := &Collection{softDelete: false}
	q := map[string]any{"status": "active"}
	assert.Equal(t, q, c.withSoftDeleteFilter(q))
}

func TestWithSoftDeleteFilter_AddsDeletedAtNull(t *testing.T) {
	c := &Collection{softDelete: true}
	out := c.withSoftDeleteFilter(map[string]any{"status": "active"})
	assert.Equal(t, "active", out["status"])
	assert.Nil(t, out[fieldDeletedAt])
	_, exists := out[fieldDeletedAt]
	assert.True(t, exists)
}

func TestWithSoftDeleteFilter_RespectsExplicitFilter(t *testing.T) {
	c := &Collection{softDelete: true}
	explicit := map[string]any{"$ne": nil}
	out := c.withSoftDeleteFilter(map[string]any{fieldDeletedAt: explicit})
	assert.Equal(t, explicit, out[fieldDeletedAt])
}

func TestWithSoftDeleteFilter_DoesNotMutateInput(t *testing.T) {
	c := &Collection{softDelete: true}
	q := map[string]any{"status": "active"}
	c.withSoftDeleteFilter(q)
	_, exists := q[fieldDeletedAt]
	assert.False(t, exists)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Decode(t *testing.T) {
	d := &Document{rawData: []byte(`{"_id":"x1","name":"Ann"}`)}
	require.NoError(t, d.decode())
	assert.Equal(t, "Ann", d.Data["name"])
}

func TestDocument_DecodeEmptyPayload(t *testing.T) {
	d := &Document{}
	require.NoError(t, d.decode())
	assert.Equal(t, map[string]any{}, d.Data)
}

func TestDocument_ID(t *testing.T) {
	d := &Document{Data: map[string]any{fieldID: "users_abc123"}}
	assert.Equal(t, "users_abc123", d.ID())
}

func TestDocument_IDMissing(t *testing.T) {
	d := &Document{Data: map[string]any{}}
	assert.Equal(t, "", d.ID())
}

func TestDocument_VersionFromJSONNumber(t *testing.T) {
	// json.Unmarshal into map[string]any decodes numbers as float64.
	d := &Document{Data: map[string]any{fieldVersion: float64(3)}}
	assert.Equal(t, 3, d.Version())
}

func TestDocument_VersionDefaultsToZero(t *testing.T) {
	d := &Document{Data: map[string]any{}}
	assert.Equal(t, 0, d.Version())
}

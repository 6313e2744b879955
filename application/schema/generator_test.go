package schema

import (
	"encoding/json"
	"testing"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema_SimpleStruct(t *testing.T) {
	type SimpleConfig struct {
		Pages    uint32 `json:"pages"`
		LogLevel string `json:"log_level,omitempty"`
	}

	schema, err := GenerateSchema(SimpleConfig{})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(schema, &decoded))

	props, ok := decoded["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "pages")
	assert.Contains(t, props, "log_level")
	assert.Equal(t, []interface{}{"pages"}, decoded["required"])
}

func TestGenerateSchema_Manifest(t *testing.T) {
	schema, err := GenerateSchema(&entities.Manifest{})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(schema, &decoded))

	defs, ok := decoded["$defs"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, defs, "EntryPoint")
	assert.Contains(t, string(schema), "released_by")
}

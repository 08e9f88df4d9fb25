package codegen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_StreamRequest(t *testing.T) {
	data, err := Marshal(SchemaRequest)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Multichat stream request", doc["title"])
	assert.Equal(t, false, doc["additionalProperties"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "models")
	assert.ElementsMatch(t, []any{"query", "models"}, doc["required"])
}

func TestSchema_FrameFields(t *testing.T) {
	schema, err := Schema(SchemaFrame)
	require.NoError(t, err)

	for _, field := range []string{"modelId", "content", "done", "error", "type"} {
		_, ok := schema.Properties.Get(field)
		assert.True(t, ok, "missing %s", field)
	}
}

func TestSchema_Unknown(t *testing.T) {
	_, err := Schema("nope")
	assert.Error(t, err)
}

func TestGenerateJSONSchema(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schema")

	paths, err := GenerateJSONSchema(dir)

	require.NoError(t, err)
	require.Len(t, paths, len(Names()))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, json.Valid(raw), path)
	}
	assert.FileExists(t, filepath.Join(dir, "frame.schema.json"))
}

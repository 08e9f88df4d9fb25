// Package codegen exports JSON Schemas for the multichat wire types.
package codegen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/janhq/multichat/pkg/protocol"
)

// Schema names accepted by Schema.
const (
	SchemaRequest = "stream-request"
	SchemaFrame   = "frame"
	SchemaCatalog = "catalog"
)

var schemaTypes = map[string]struct {
	value       any
	title       string
	description string
}{
	SchemaRequest: {
		value:       &protocol.StreamRequest{},
		title:       "Multichat stream request",
		description: "Body of POST /v1/chat/stream",
	},
	SchemaFrame: {
		value:       &protocol.Frame{},
		title:       "Multichat stream frame",
		description: "Payload of one data: record in the multiplexed event stream",
	},
	SchemaCatalog: {
		value:       &protocol.CatalogResponse{},
		title:       "Multichat model catalogue",
		description: "Body of GET /v1/models",
	},
}

// Names lists the available schemas in stable order.
func Names() []string {
	names := make([]string, 0, len(schemaTypes))
	for name := range schemaTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema reflects the named wire type.
func Schema(name string) (*jsonschema.Schema, error) {
	entry, ok := schemaTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            false,
		ExpandedStruct:            true,
	}
	schema := reflector.Reflect(entry.value)
	schema.Title = entry.title
	schema.Description = entry.description
	return schema, nil
}

// Marshal renders the named schema as indented JSON.
func Marshal(name string) ([]byte, error) {
	schema, err := Schema(name)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}

// GenerateJSONSchema writes every schema to outputDir as <name>.schema.json
// and returns the written paths.
func GenerateJSONSchema(outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var written []string
	for _, name := range Names() {
		data, err := Marshal(name)
		if err != nil {
			return written, err
		}
		path := filepath.Join(outputDir, name+".schema.json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, fmt.Errorf("write %s schema: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

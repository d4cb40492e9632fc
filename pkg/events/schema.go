package events

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// LaunchSchema names the launch event schema.
const (
	LaunchSchema  = "binderlink/launch"
	LaunchVersion = 1
)

const launchSchemaV1 = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"provider": {"type": "string", "minLength": 1},
		"spec": {"type": "string", "pattern": "^[^/]+/.*/"},
		"status": {"type": "string", "enum": ["requested", "success", "failure"]}
	},
	"required": ["provider", "spec", "status"],
	"additionalProperties": false
}`

type schemaKey struct {
	name    string
	version int
}

func (k schemaKey) String() string {
	return fmt.Sprintf("%s v%d", k.name, k.version)
}

// builtinSchemas compiles the schemas every Log knows about.
func builtinSchemas() map[schemaKey]*gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(launchSchemaV1))
	if err != nil {
		panic(fmt.Sprintf("events: launch schema: %v", err))
	}
	return map[schemaKey]*gojsonschema.Schema{
		{LaunchSchema, LaunchVersion}: s,
	}
}

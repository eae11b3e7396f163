package assembly

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// SchemaVersion is the current assembly plan document version.
const SchemaVersion = "1"

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrInvalidDocument is returned when a plan document fails schema validation.
var ErrInvalidDocument = errors.New("invalid assembly plan document")

//go:embed schema/plan.schema.json
var planSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

// Document is the persisted hand-off form of an assembly plan.
type Document struct {
	SchemaVersion string  `json:"schema_version" yaml:"schema_version"`
	Items         Plan    `json:"items" yaml:"items"`
	Globals       Globals `json:"globals" yaml:"globals"`
}

// NewDocument wraps a plan and its timeline settings in a versioned document.
func NewDocument(plan Plan, g Globals) Document {
	items := plan.Clone()
	if items == nil {
		items = Plan{}
	}
	return Document{SchemaVersion: SchemaVersion, Items: items, Globals: g}
}

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes the document.
func Encode(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown plan format %q", format)
	}
}

// Decode validates data against the plan schema and parses it.
func Decode(data []byte, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return doc, fmt.Errorf("parse yaml: %w", err)
		}
		if err := validate(gojsonschema.NewGoLoader(raw)); err != nil {
			return doc, err
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON, "":
		if err := Validate(data); err != nil {
			return doc, err
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("decode json: %w", err)
		}
	default:
		return doc, fmt.Errorf("unknown plan format %q", format)
	}
	return doc, nil
}

// Validate checks a JSON plan document against the embedded schema.
func Validate(data []byte) error {
	return validate(gojsonschema.NewBytesLoader(data))
}

func validate(doc gojsonschema.JSONLoader) error {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(planSchema))
	})
	if schemaErr != nil {
		return fmt.Errorf("load plan schema: %w", schemaErr)
	}

	result, err := compiledSchema.Validate(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}
	return nil
}

package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"DocumentExtractionSystem/pkg/models"
)

// Registry holds the schema definition for every document kind
type Registry struct {
	defs       map[models.DocumentKind]SchemaDefinition
	validators map[models.DocumentKind]*jsonschema.Schema
}

// NewRegistry builds the registry and compiles a validator for each definition
func NewRegistry() (*Registry, error) {
	r := &Registry{
		defs:       make(map[models.DocumentKind]SchemaDefinition),
		validators: make(map[models.DocumentKind]*jsonschema.Schema),
	}
	for _, def := range []SchemaDefinition{invoiceDefinition(), businessCardDefinition()} {
		compiled, err := compile(def)
		if err != nil {
			return nil, fmt.Errorf("compiling %s schema: %w", def.Kind, err)
		}
		r.defs[def.Kind] = def
		r.validators[def.Kind] = compiled
	}
	return r, nil
}

// SchemaFor returns the definition registered for kind
func (r *Registry) SchemaFor(kind models.DocumentKind) (SchemaDefinition, error) {
	def, ok := r.defs[kind]
	if !ok {
		return SchemaDefinition{}, fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
	}
	return def, nil
}

// Check validates raw against the kind's JSON Schema and returns the violations found.
// The result is advisory: callers log it and carry on.
func (r *Registry) Check(kind models.DocumentKind, raw models.ExtractionResult) []string {
	validator, ok := r.validators[kind]
	if !ok {
		return []string{fmt.Sprintf("no schema registered for %q", kind)}
	}

	err := validator.Validate(raw.Raw())
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}
	return collectViolations(verr, nil)
}

func collectViolations(verr *jsonschema.ValidationError, out []string) []string {
	if len(verr.Causes) == 0 {
		loc := verr.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, fmt.Sprintf("%s: %s", loc, verr.Message))
	}
	for _, cause := range verr.Causes {
		out = collectViolations(cause, out)
	}
	return out
}

// JSONSchema renders the definition as a JSON Schema document
func JSONSchema(def SchemaDefinition) map[string]any {
	return objectSchema(def.Fields)
}

func objectSchema(fields []FieldSchema) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := RequiredNames(fields); len(req) > 0 {
		out["required"] = req
	}
	return out
}

func fieldSchema(f FieldSchema) map[string]any {
	var prop map[string]any
	switch f.Type {
	case TypeObjectArray:
		prop = map[string]any{
			"type":  "array",
			"items": objectSchema(f.Items),
		}
	default:
		prop = map[string]any{"type": string(f.Type)}
	}
	if !f.Required {
		// The model may answer null for anything it cannot find
		prop["type"] = []any{prop["type"], "null"}
	}
	if f.Description != "" {
		prop["description"] = f.Description
	}
	return prop
}

func compile(def SchemaDefinition) (*jsonschema.Schema, error) {
	b, err := json.Marshal(JSONSchema(def))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	url := string(def.Kind) + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(url)
}

package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jdavidagudelo/handoff/application/schema"
	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/ports"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "manifest.schema.json"

// Validator checks a manifest against its JSON schema and the ownership rules.
type Validator struct {
	schema *jsonschema.Schema
}

var _ ports.ManifestValidator = (*Validator)(nil)

// Schema returns the JSON schema of the manifest document.
func Schema() ([]byte, error) {
	return schema.GenerateSchema(&entities.Manifest{})
}

// NewValidator compiles the manifest schema.
func NewValidator() (*Validator, error) {
	doc, err := Schema()
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("failed to add manifest schema: %w", err)
	}
	sch, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest schema: %w", err)
	}
	return &Validator{schema: sch}, nil
}

// Validate runs the schema check and then the ownership rules.
// Problems with the manifest are reported in the result, not as an error.
func (v *Validator) Validate(m *entities.Manifest) (*entities.ValidationResult, error) {
	result := &entities.ValidationResult{Valid: true}
	if m == nil {
		result.Add("manifest", "manifest is nil")
		return result, nil
	}

	b, err := json.Marshal(normalize(m))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}
	var obj interface{}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}

	if err := v.schema.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			for _, leaf := range leaves(ve) {
				result.Add(leaf.InstanceLocation, leaf.Message)
			}
		} else {
			result.Add("manifest", err.Error())
		}
		return result, nil
	}

	checkOwnership(m, result)
	return result, nil
}

// leaves flattens a schema error tree to the failures that caused it.
func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

// normalize returns a copy with nil lists replaced by empty ones, so a
// manifest built in Go encodes the same way as a parsed one.
func normalize(m *entities.Manifest) *entities.Manifest {
	out := *m
	out.EntryPoints = make([]entities.EntryPoint, len(m.EntryPoints))
	for i, ep := range m.EntryPoints {
		if ep.Params == nil {
			ep.Params = []entities.ValueType{}
		}
		if ep.Results == nil {
			ep.Results = []entities.ValueType{}
		}
		if ep.Inputs == nil {
			ep.Inputs = []entities.Ownership{}
		}
		out.EntryPoints[i] = ep
	}
	return &out
}

package entities

import (
	"fmt"
	"slices"
	"strings"
)

// ValueType is a core wasm value type as it appears in an export signature.
type ValueType string

const (
	ValueTypeI32 ValueType = "i32"
	ValueTypeI64 ValueType = "i64"
)

// Signature is the flat parameter/result list of a guest export.
type Signature struct {
	Params  []ValueType `json:"params" yaml:"params"`
	Results []ValueType `json:"results" yaml:"results"`
}

// EntryPoint describes one guest export and the ownership of what crosses it.
type EntryPoint struct {
	// Name is the export name.
	Name string `json:"name" yaml:"name" jsonschema:"pattern=^[a-z][a-z0-9_]*$"`

	// Description is a short human-readable summary.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Signature `yaml:",inline"`

	// Inputs lists the ownership of every parameter, in order.
	Inputs []Ownership `json:"inputs" yaml:"inputs"`

	// Output is the ownership of the result, empty when nothing is returned.
	Output Ownership `json:"output,omitempty" yaml:"output,omitempty" jsonschema:"enum=value,enum=borrowed,enum=owned,enum=consumed,enum=static"`

	// ReleasedBy names the entry point that consumes an owned output.
	ReleasedBy string `json:"released_by,omitempty" yaml:"released_by,omitempty"`
}

// Manifest is the declared boundary surface of the guest library.
type Manifest struct {
	Name        string       `json:"name" yaml:"name"`
	Version     string       `json:"version" yaml:"version"`
	EntryPoints []EntryPoint `json:"entry_points" yaml:"entry_points" jsonschema:"minItems=1"`
}

// Lookup returns the entry point with the given name.
func (m *Manifest) Lookup(name string) (EntryPoint, bool) {
	for _, ep := range m.EntryPoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

// Equal reports whether two signatures have identical params and results.
func (s Signature) Equal(o Signature) bool {
	return slices.Equal(s.Params, o.Params) && slices.Equal(s.Results, o.Results)
}

func (s Signature) String() string {
	return fmt.Sprintf("(%s) -> (%s)", joinTypes(s.Params), joinTypes(s.Results))
}

func joinTypes(types []ValueType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// Package manifest holds the declared boundary surface of the guest: every
// entry point, its flat signature and the ownership of what crosses it.
package manifest

import (
	_ "embed"
	"fmt"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/ports"
	"github.com/jdavidagudelo/handoff/infrastructure/parser"
)

//go:embed manifest.yaml
var defaultManifest []byte

// Raw returns the embedded manifest document.
func Raw() []byte {
	return append([]byte(nil), defaultManifest...)
}

// Default parses and validates the embedded manifest.
func Default() (*entities.Manifest, error) {
	return Load(defaultManifest)
}

// Load parses a YAML manifest and validates it.
func Load(data []byte) (*entities.Manifest, error) {
	return LoadWith(parser.NewYamlManifestParser(), data)
}

// LoadWith parses data with p and validates the result.
func LoadWith(p ports.ManifestParser, data []byte) (*entities.Manifest, error) {
	m, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	result, err := v.Validate(m)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &InvalidError{Errors: result.Errors}
	}
	return m, nil
}

// InvalidError lists everything wrong with a manifest.
type InvalidError struct {
	Errors []entities.ValidationError
}

func (e *InvalidError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid manifest: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("invalid manifest: %d errors, first: %s: %s", len(e.Errors), e.Errors[0].Field, e.Errors[0].Message)
}

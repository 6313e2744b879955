// Package parser decodes boundary manifests.
package parser

import (
	"bytes"
	"fmt"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/ports"
	"gopkg.in/yaml.v3"
)

// YamlManifestParser implements ManifestParser for YAML.
type YamlManifestParser struct{}

// NewYamlManifestParser creates a new YamlManifestParser.
func NewYamlManifestParser() ports.ManifestParser {
	return &YamlManifestParser{}
}

// Parse unmarshals YAML bytes into a Manifest. Unknown fields are rejected
// so a misspelled ownership key cannot silently fall back to its zero value.
func (p *YamlManifestParser) Parse(data []byte) (*entities.Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var manifest entities.Manifest
	if err := dec.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}

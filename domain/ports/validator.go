package ports

import "github.com/jdavidagudelo/handoff/domain/entities"

// ManifestValidator checks a manifest document and its ownership rules.
type ManifestValidator interface {
	// Validate checks the manifest against its schema and invariants.
	Validate(manifest *entities.Manifest) (*entities.ValidationResult, error)
}

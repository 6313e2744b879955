package ports

import "github.com/jdavidagudelo/handoff/domain/entities"

// ManifestParser parses raw bytes into a boundary Manifest.
type ManifestParser interface {
	// Parse unmarshals bytes into a Manifest struct.
	Parse(data []byte) (*entities.Manifest, error)
}

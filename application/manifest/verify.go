package manifest

import (
	stdErrors "errors"
	"fmt"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
)

// Verify checks that exports provides every entry point of m with the exact
// signature. Extra exports are allowed. All mismatches are joined.
func Verify(m *entities.Manifest, exports map[string]entities.Signature) error {
	var errs []error
	for _, ep := range m.EntryPoints {
		got, ok := exports[ep.Name]
		if !ok {
			errs = append(errs, &errors.ManifestError{Export: ep.Name, Reason: "not exported"})
			continue
		}
		if !ep.Signature.Equal(got) {
			errs = append(errs, &errors.ManifestError{
				Export: ep.Name,
				Reason: fmt.Sprintf("signature %s, want %s", got, ep.Signature),
			})
		}
	}
	return stdErrors.Join(errs...)
}

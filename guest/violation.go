package guest

import (
	stdErrors "errors"

	"github.com/jdavidagudelo/handoff/domain/errors"
)

// fail aborts the current export with a contract violation.
func fail(op string, kind errors.ViolationKind, format string, args ...any) {
	panic(errors.Violation(op, kind, format, args...))
}

// AsViolation extracts a violation from a recovered panic value.
func AsViolation(r any) (*errors.ContractViolationError, bool) {
	err, ok := r.(error)
	if !ok {
		return nil, false
	}
	var cv *errors.ContractViolationError
	if stdErrors.As(err, &cv) {
		return cv, true
	}
	return nil, false
}

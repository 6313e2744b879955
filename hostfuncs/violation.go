package hostfuncs

import (
	"context"
	"fmt"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
)

// ViolationRecorder keeps the last contract violation a guest reported
// before failing fast. It is not safe for concurrent use.
type ViolationRecorder struct {
	last *errors.ContractViolationError
}

// NewViolationRecorder creates an empty recorder.
func NewViolationRecorder() *ViolationRecorder {
	return &ViolationRecorder{}
}

// Record stores a reported violation.
func (r *ViolationRecorder) Record(_ context.Context, detail entities.ErrorDetail) error {
	cv, ok := errors.ViolationFromDetail(&detail)
	if !ok {
		return fmt.Errorf("report is not a contract violation: type %q", detail.Type)
	}
	r.last = cv
	return nil
}

// Take returns and clears the stored violation.
func (r *ViolationRecorder) Take() (*errors.ContractViolationError, bool) {
	cv := r.last
	r.last = nil
	return cv, cv != nil
}

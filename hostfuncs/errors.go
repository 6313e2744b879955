package hostfuncs

import (
	"errors"
	"fmt"

	"github.com/jdavidagudelo/handoff/domain/entities"
)

// ErrUnknownFunction is returned when invoking a name that was never registered.
var ErrUnknownFunction = errors.New("unknown host function")

// PanicError reports a host function that panicked.
type PanicError struct {
	Value    any
	Function string
}

// NewPanicError wraps a recovered panic value.
func NewPanicError(function string, panicValue any) *PanicError {
	return &PanicError{Function: function, Value: panicValue}
}

func (e *PanicError) Error() string {
	var msg string
	if err, ok := e.Value.(error); ok {
		msg = err.Error()
	} else if s, ok := e.Value.(string); ok {
		msg = s
	} else {
		msg = "panic recovered"
	}
	return fmt.Sprintf("host function %s: panic: %s", e.Function, msg)
}

// ToErrorDetail implements errors.DetailedError.
func (e *PanicError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: "panic"}
}

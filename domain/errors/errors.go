// Package errors provides domain-specific error types for the boundary.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jdavidagudelo/handoff/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// TypeContractViolation is the ErrorDetail.Type of a reported contract violation.
const TypeContractViolation = "contract_violation"

// ExitContractViolation is the exit code of a guest that failed fast after
// reporting a violation.
const ExitContractViolation = 70

var (
	// ErrContractViolation matches every *ContractViolationError via errors.Is.
	ErrContractViolation = stdErrors.New("contract violation")

	// ErrGuestTerminated is returned for calls made after the guest failed fast.
	ErrGuestTerminated = stdErrors.New("guest terminated")

	// ErrReleased is returned when an owned value is used after release.
	ErrReleased = stdErrors.New("value already released")
)

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// ViolationKind classifies a broken precondition.
type ViolationKind string

const (
	ViolationNullHandle         ViolationKind = "null_handle"
	ViolationUnknownHandle      ViolationKind = "unknown_handle"
	ViolationNullPointer        ViolationKind = "null_pointer"
	ViolationInvalidText        ViolationKind = "invalid_text"
	ViolationForeignPointer     ViolationKind = "foreign_pointer"
	ViolationDescriptorMismatch ViolationKind = "descriptor_mismatch"
	ViolationOutOfBounds        ViolationKind = "out_of_bounds"
	ViolationUseAfterRelease    ViolationKind = "use_after_release"
)

// ContractViolationError reports a caller that broke a stated precondition of
// an entry point. It is never retried; the call that raised it did not run.
type ContractViolationError struct {
	Operation string
	Kind      ViolationKind
	Detail    string
}

// Violation builds a ContractViolationError.
func Violation(op string, kind ViolationKind, format string, args ...any) *ContractViolationError {
	return &ContractViolationError{
		Operation: op,
		Kind:      kind,
		Detail:    fmt.Sprintf(format, args...),
	}
}

func (e *ContractViolationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("contract violation in %s (%s): %s", e.Operation, e.Kind, e.Detail)
	}
	return fmt.Sprintf("contract violation in %s (%s)", e.Operation, e.Kind)
}

// Is reports whether target is ErrContractViolation.
func (e *ContractViolationError) Is(target error) bool {
	return target == ErrContractViolation
}

// ToErrorDetail implements DetailedError.
func (e *ContractViolationError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail(TypeContractViolation, e.Detail).
		WithCode(string(e.Kind)).
		WithDetails(map[string]any{"operation": e.Operation})
}

// ViolationFromDetail rebuilds a ContractViolationError from its wire form.
// The second return value is false if detail does not describe a violation.
func ViolationFromDetail(detail *entities.ErrorDetail) (*ContractViolationError, bool) {
	if detail == nil || detail.Type != TypeContractViolation {
		return nil, false
	}
	op, _ := detail.Details["operation"].(string)
	return &ContractViolationError{
		Operation: op,
		Kind:      ViolationKind(detail.Code),
		Detail:    detail.Message,
	}, true
}

// GuestError wraps a failure of the guest that is not a reported violation,
// such as a trap or an unexpected exit.
type GuestError struct {
	Err      error
	Export   string
	ExitCode uint32
}

func (e *GuestError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("guest export %s exited with code %d: %v", e.Export, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("guest export %s failed: %v", e.Export, e.Err)
}

func (e *GuestError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *GuestError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: "guest_" + e.Export}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("config", e.Error()).WithCode(e.Field)
}

// MemoryError represents a memory allocation failure.
type MemoryError struct {
	Requested int // Requested allocation size
	Current   int // Current total allocated
	Limit     int // Maximum allowed
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory allocation failed: requested %d bytes, current %d bytes, limit %d bytes",
		e.Requested, e.Current, e.Limit)
}

// ToErrorDetail implements DetailedError.
func (e *MemoryError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "memory", Code: "memory_limit"}
}

// ManifestError represents a guest whose exports do not match the declared manifest.
type ManifestError struct {
	Export string
	Reason string
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest mismatch for export %q: %s", e.Export, e.Reason)
}

// ToErrorDetail implements DetailedError.
func (e *ManifestError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: "manifest"}
}

// WireFormatError represents a wire format encoding/decoding error.
type WireFormatError struct {
	Err       error
	Operation string
	Type      string
}

func (e *WireFormatError) Error() string {
	return fmt.Sprintf("wire format %s failed for %s: %v", e.Operation, e.Type, e.Err)
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *WireFormatError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: "wire_format"}
}

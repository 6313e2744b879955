package entities

// ValidationResult represents the outcome of a manifest validation.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Add records a validation error and marks the result invalid.
func (r *ValidationResult) Add(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

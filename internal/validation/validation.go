package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a structured validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects multiple field errors. It implements error so
// services can return it and callers can detect it with errors.As.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

// Err returns ve as an error, or nil when nothing was collected.
func (ve *ValidationErrors) Err() error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// RequireField checks a required string field is non-empty.
func RequireField(ve *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
	}
}

// ValidateEnum checks a field is one of allowed values.
func ValidateEnum(ve *ValidationErrors, field, value string, allowed []string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	ve.Add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// ValidatePositiveInt checks a field is > 0.
func ValidatePositiveInt(ve *ValidationErrors, field string, value int) {
	if value <= 0 {
		ve.Add(field, "must be a positive integer")
	}
}

// ValidateIntRange checks a field is within a specified range.
func ValidateIntRange(ve *ValidationErrors, field string, value, min, max int) {
	if value < min || value > max {
		ve.Add(field, fmt.Sprintf("must be between %d and %d", min, max))
	}
}

// ValidateMaxLength checks a string does not exceed max characters.
func ValidateMaxLength(ve *ValidationErrors, field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		ve.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// Maximum value constants to prevent overflow and ensure reasonable limits.
const (
	MaxWorkOrderQty = 100000
	MaxCodeLength   = 100
	MaxNameLength   = 200
	MaxTextLength   = 10000
)

// Page size limits shared by every paged list.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ClampPageSize replaces a non-positive size with def, or DefaultPageSize when
// def is unset, and caps the result at MaxPageSize.
func ClampPageSize(size, def int) int {
	if size < 1 {
		size = def
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return min(size, MaxPageSize)
}

// Package validation collects field-level request validation errors.
package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error accumulates per-field validation failures for one request.
type Error struct {
	Fields map[string]string
}

// New creates an empty validation error.
func New() *Error {
	return &Error{Fields: make(map[string]string)}
}

// Add records a failure for a field. The first failure per field wins.
func (e *Error) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed.
func (e *Error) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error formats the failures as a single message.
func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, message := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Required checks that a field is non-empty.
func (e *Error) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "is required")
	}
}

// UUID checks that a field parses as a UUID. Empty values are left to
// Required.
func (e *Error) UUID(field, value string) {
	if value == "" {
		return
	}
	if _, err := uuid.Parse(value); err != nil {
		e.Add(field, "must be a valid UUID")
	}
}

// OneOf checks that a field matches one of the allowed values.
func (e *Error) OneOf(field, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	e.Add(field, "must be one of: "+strings.Join(allowed, ", "))
}

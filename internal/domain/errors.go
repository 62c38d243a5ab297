package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports every field that failed validation for a submitted
// record. A record that produces one is never partially applied.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a failure message for a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

// AddIf records err for field when err is non-nil.
func (e *ValidationError) AddIf(field string, err error) {
	if err != nil {
		e.Fields[field] = err.Error()
	}
}

// FieldError builds a single-field ValidationError from err, or returns nil
// when err is nil.
func FieldError(field string, err error) error {
	if err == nil {
		return nil
	}
	v := NewValidationError()
	v.Add(field, err.Error())
	return v
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Err returns the error itself when any field failed, nil otherwise.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

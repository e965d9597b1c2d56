package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationErrorName is the discriminator carried by every ValidationError.
const ValidationErrorName = "ValidationError"

// FieldError describes one failed rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Result is the outcome of validating an attribute set.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// AddError records a field error and marks the result invalid.
func (r *Result) AddError(field, rule string, value any, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{Field: field, Rule: rule, Value: value, Message: message})
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r *Result) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	return &ValidationError{Errors: append([]FieldError(nil), r.Errors...)}
}

// ValidationError is the error form of an invalid Result.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// Name returns the error kind discriminator, "ValidationError".
func (e *ValidationError) Name() string {
	return ValidationErrorName
}

// Valid always reports false; it mirrors Result.Valid for callers holding the error.
func (e *ValidationError) Valid() bool {
	return false
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "modelkit: validation failed"
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	return "modelkit: validation failed: " + strings.Join(parts, "; ")
}

// Fields groups the error messages by field name.
func (e *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string)
	for _, fe := range e.Errors {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// HasField reports whether field failed at least one rule.
func (e *ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func sortErrors(errs []FieldError) {
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Field < errs[j].Field
	})
}

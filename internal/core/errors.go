package core

import (
	"fmt"
	"strings"
)

// LLMCallError wraps a failed provider call (network, timeout, quota).
// The cascade recovers from it by falling through to the next stage.
type LLMCallError struct {
	Provider string
	Err      error
}

func (e *LLMCallError) Error() string {
	return fmt.Sprintf("llm call failed (%s): %v", e.Provider, e.Err)
}

func (e *LLMCallError) Unwrap() error {
	return e.Err
}

// FieldError describes a single schema violation in an LLM response
type FieldError struct {
	Field  string
	Reason string
}

// ValidationResult collects the schema violations found in a response
type ValidationResult struct {
	Errors []FieldError
}

// OK reports whether validation passed
func (r *ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Add records a violation for field
func (r *ValidationResult) Add(field, reason string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Reason: reason})
}

func (r *ValidationResult) String() string {
	parts := make([]string, len(r.Errors))
	for i, fe := range r.Errors {
		parts[i] = fe.Field + ": " + fe.Reason
	}
	return strings.Join(parts, "; ")
}

// Validatable is implemented by every LLM response type that carries
// a fixed schema
type Validatable interface {
	Validate() *ValidationResult
}

// SchemaError wraps a malformed or schema-invalid LLM response.
// Like LLMCallError it never escapes the cascade; nothing invalid is cached.
type SchemaError struct {
	Result *ValidationResult
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid llm response: %v", e.Err)
	}
	return fmt.Sprintf("llm response failed schema validation: %s", e.Result.String())
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

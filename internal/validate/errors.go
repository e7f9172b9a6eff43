package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for configuration problems. These are returned by
// Validate and the delegation functions; rule failures are not errors.
var (
	// ErrNoChildForValidations is returned when rules are delegated to a
	// node that is not a child of the owner.
	ErrNoChildForValidations = errors.New("no such child for validations")

	// ErrNotValidatable is returned when a delegation target has no validator.
	ErrNotValidatable = errors.New("node is not validatable")

	// ErrUnknownRule is returned for a rule name with no implementation.
	ErrUnknownRule = errors.New("unknown validation rule")

	// ErrMissingPredicate is returned when a function rule names a
	// predicate that neither the delegate nor the subject provides.
	ErrMissingPredicate = errors.New("missing validation predicate")

	// ErrBadRuleArgs is returned when a rule's arguments have the wrong shape.
	ErrBadRuleArgs = errors.New("bad validation rule arguments")
)

// NoChildForValidationsError identifies a failed delegation.
type NoChildForValidationsError struct {
	Owner string
	Child string
}

func (e *NoChildForValidationsError) Error() string {
	return fmt.Sprintf("%s: %q is not a child of %q", ErrNoChildForValidations, e.Child, e.Owner)
}

func (e *NoChildForValidationsError) Is(target error) bool {
	return target == ErrNoChildForValidations
}

// RuleError wraps a configuration error with the field and rule it came from.
type RuleError struct {
	Field string
	Rule  string
	Err   error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("validate %s: rule %q: %v", e.Field, e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// FieldError is one recorded rule failure.
type FieldError struct {
	Field   string
	Rule    string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects the failures of one validation run.
type ValidationErrors struct {
	Errors []*FieldError
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e.Errors), strings.Join(msgs, "\n  - "))
}

// Add records a failure.
func (e *ValidationErrors) Add(err *FieldError) {
	e.Errors = append(e.Errors, err)
}

// HasErrors reports whether any failure was recorded.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// AsError returns nil if there are no failures, otherwise e.
func (e *ValidationErrors) AsError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// ByField groups failure messages by field, in recording order.
func (e *ValidationErrors) ByField() map[string][]string {
	out := make(map[string][]string)
	for _, err := range e.Errors {
		out[err.Field] = append(out[err.Field], err.Message)
	}
	return out
}

// Fields returns the failing field names, sorted.
func (e *ValidationErrors) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, err := range e.Errors {
		if !seen[err.Field] {
			seen[err.Field] = true
			out = append(out, err.Field)
		}
	}
	sort.Strings(out)
	return out
}

package attr

import (
	"errors"
	"fmt"
)

// ErrUndefinedAttribute is matched by every *UndefinedAttributeError.
var ErrUndefinedAttribute = errors.New("undefined attribute")

// UndefinedAttributeError reports access to a name outside the store's
// recognised attribute names.
type UndefinedAttributeError struct {
	// Name is the attribute that was requested.
	Name string

	// Op is the store operation that failed ("get", "set", ...).
	Op string
}

// Error implements the error interface.
func (e *UndefinedAttributeError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, ErrUndefinedAttribute)
}

// Is allows errors.Is to match ErrUndefinedAttribute.
func (e *UndefinedAttributeError) Is(target error) bool {
	return target == ErrUndefinedAttribute
}

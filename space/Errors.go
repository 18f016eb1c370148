package space

import (
	"errors"
	"fmt"
)

// ErrEmptySpace is returned when sampling from a Discrete space with no
// elements
var ErrEmptySpace = errors.New("space: cannot sample from Discrete(0)")

// SchemaError reports a space description that is missing a field, has a
// field of the wrong type or shape, or names an unknown kind of space.
// It usually means the server and client disagree on the protocol.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "space: invalid schema: " + e.Reason
	}
	return fmt.Sprintf("space: invalid schema field %q: %s", e.Field, e.Reason)
}

// UnsupportedSpaceError reports an operation that is not implemented for
// some kind of space, such as reading a Tuple space from the wire.
type UnsupportedSpaceError struct {
	Space string
	Op    string
}

func (e *UnsupportedSpaceError) Error() string {
	return fmt.Sprintf("space: %s is not supported for %s spaces", e.Op, e.Space)
}

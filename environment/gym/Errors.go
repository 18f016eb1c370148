package gym

import (
	"fmt"

	"github.com/samuelfneumann/gymclient/space"
)

// SchemaError reports a malformed space description sent by the server
type SchemaError = space.SchemaError

// UnsupportedSpaceError reports an operation which is not implemented
// for a kind of space, such as sending a Tuple action
type UnsupportedSpaceError = space.UnsupportedSpaceError

// TransportError reports a failed request/response exchange with the
// server: the request could not be sent, the connection failed, the
// response status was not 2xx, or the response body could not be read
// as JSON.
type TransportError struct {
	Method string
	Path   string

	// StatusCode is the HTTP status of the response, or 0 if no
	// response was received
	StatusCode int

	// Message holds the message field of an error response from the
	// server, if any
	Message string

	Err error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("gym: %s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnknownEnvironmentError reports that the server did not create an
// instance of the requested environment
type UnknownEnvironmentError struct {
	EnvID string
	Err   error
}

func (e *UnknownEnvironmentError) Error() string {
	msg := fmt.Sprintf("gym: could not create environment %q", e.EnvID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnknownEnvironmentError) Unwrap() error {
	return e.Err
}

// InvalidActionError reports an action that does not fit the action
// space of a session. It is always returned before any request is sent.
type InvalidActionError struct {
	Space    space.Space
	Expected int
	Got      int
	Reason   string
}

func (e *InvalidActionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("gym: invalid action for %v: %s", e.Space, e.Reason)
	}
	return fmt.Sprintf("gym: invalid action for %v: expected %d elements, "+
		"got %d", e.Space, e.Expected, e.Got)
}

// ProtocolError reports a response from the server which is missing a
// field or holds a field of the wrong type
type ProtocolError struct {
	Op     string
	Field  string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("gym: %s: invalid response field %q: %s", e.Op,
		e.Field, e.Reason)
}

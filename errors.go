package amelie

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorType separates caller-caused failures from environment-caused ones.
type ErrorType int

const (
	// ErrorTypeProgramming covers closed handles, malformed statements or
	// parameters, and errors reported by the server for a statement.
	ErrorTypeProgramming ErrorType = iota + 1
	// ErrorTypeOperational covers unreachable hosts, resets, timeouts and
	// responses that can't be understood.
	ErrorTypeOperational
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeProgramming:
		return "programming error"
	case ErrorTypeOperational:
		return "operational error"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// Error is the only error type returned from Cursor.Execute and friends.
type Error struct {
	Type    ErrorType
	Message string
	// StatusCode is the HTTP status of the response that carried the error,
	// or zero if there was no response.
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("amelie: %s: %v", e.Message, e.Cause)
	}
	return "amelie: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewProgrammingError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeProgramming, Message: message, Cause: cause}
}

func NewOperationalError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeOperational, Message: message, Cause: cause}
}

var (
	ErrClosed = NewProgrammingError("connection or cursor is closed", nil)

	ErrTransactionsUnsupported = NewProgrammingError("transactions are not supported", nil)
)

func errorType(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return 0
}

func IsProgrammingError(err error) bool {
	return errorType(err) == ErrorTypeProgramming
}

func IsOperationalError(err error) bool {
	return errorType(err) == ErrorTypeOperational
}

// asError passes an *Error through and gives anything else the fallback
// type, so no foreign error type leaves the package.
func asError(err error, fallback ErrorType, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Type: fallback, Message: message, Cause: err}
}

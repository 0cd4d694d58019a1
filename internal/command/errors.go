package command

import (
	"errors"
	"fmt"
	"io"
)

// Process exit codes. Every dispatched command ends in exactly one of them.
const (
	ExitOK         = 0
	ExitUnexpected = 1
	ExitExpected   = 42
)

// Error is an expected failure: bad input, a missing argument or a failing
// shell step. It is reported as a short message and never as a trace.
type Error struct {
	err error
}

// Errorf builds an expected error. %w verbs are honoured.
func Errorf(format string, args ...any) error {
	return &Error{err: fmt.Errorf(format, args...)}
}

// Expected marks err as expected. A nil err stays nil.
func Expected(err error) error {
	if err == nil {
		return nil
	}
	return &Error{err: err}
}

func (e *Error) Error() string { return e.err.Error() }

func (e *Error) Unwrap() error { return e.err }

// IsExpected reports whether err (or anything it wraps) is an expected error.
func IsExpected(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// UnknownCommandError is returned when no handler is registered for a name.
type UnknownCommandError struct {
	Name string
	Args []string
}

func (e *UnknownCommandError) Error() string {
	return "Unknown command " + e.Name
}

// PanicError carries a recovered handler panic and the stack it happened on.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// ReportUnexpected writes the details of an unexpected error: the error
// chain, followed by the goroutine stack when the error came from a panic.
func ReportUnexpected(w io.Writer, err error) {
	fmt.Fprintln(w, "Unexpected error:")
	fmt.Fprintf(w, "  %v\n", err)

	var p *PanicError
	if errors.As(err, &p) && len(p.Stack) > 0 {
		fmt.Fprintf(w, "\n%s\n", p.Stack)
	}
}

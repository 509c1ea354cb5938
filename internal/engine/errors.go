package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/synthplane/internal/automation"
	"github.com/roach88/synthplane/internal/buffer"
	"github.com/roach88/synthplane/internal/config"
	"github.com/roach88/synthplane/internal/events"
	"github.com/roach88/synthplane/internal/handle"
	"github.com/roach88/synthplane/internal/ir"
	"github.com/roach88/synthplane/internal/props"
	"github.com/roach88/synthplane/internal/stream"
)

// Error is the error type of every fallible engine operation.
//
// Lower layers return sentinel errors; the engine classifies them into a Code
// at the API boundary. Nothing is retried.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description. For StreamError it is the
	// stream callback's message, verbatim.
	Message string

	// Handle is the object the operation targeted, if any.
	Handle ir.Handle

	// Err is the underlying cause.
	Err error
}

// Code categorizes engine errors. Zero means success.
type Code int

const (
	CodeNotInitialized Code = iota + 1
	CodeAlreadyInitialized
	CodeInvalidHandle
	CodeWrongObjectType
	CodeInvalidProperty
	CodeReadOnlyProperty
	CodeInvalidValue
	CodeStreamError
	CodeOutOfMemory
)

var codeNames = map[Code]string{
	CodeNotInitialized:     "NOT_INITIALIZED",
	CodeAlreadyInitialized: "ALREADY_INITIALIZED",
	CodeInvalidHandle:      "INVALID_HANDLE",
	CodeWrongObjectType:    "WRONG_OBJECT_TYPE",
	CodeInvalidProperty:    "INVALID_PROPERTY",
	CodeReadOnlyProperty:   "READ_ONLY_PROPERTY",
	CodeInvalidValue:       "INVALID_VALUE",
	CodeStreamError:        "STREAM_ERROR",
	CodeOutOfMemory:        "OUT_OF_MEMORY",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE_%d", int(c))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Handle != ir.NoHandle {
		return fmt.Sprintf("%s: %s (handle=%s)", e.Code, e.Message, e.Handle)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of err, or 0 for nil.
// Errors that did not come from the engine map to CodeInvalidValue.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInvalidValue
}

func newError(code Code, h ir.Handle, format string, args ...any) *Error {
	return &Error{Code: code, Handle: h, Message: fmt.Sprintf(format, args...)}
}

// classify converts a lower-layer error into an *Error.
func classify(h ir.Handle, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	out := &Error{Handle: h, Message: err.Error(), Err: err}
	var se *stream.Error
	var ce *config.Error
	switch {
	case errors.As(err, &se):
		out.Code = CodeStreamError
		out.Message = se.Message
	case errors.Is(err, handle.ErrInvalidHandle),
		errors.Is(err, props.ErrUnknownObject),
		errors.Is(err, props.ErrDeadReference):
		out.Code = CodeInvalidHandle
	case errors.Is(err, props.ErrInvalidProperty):
		out.Code = CodeInvalidProperty
	case errors.Is(err, props.ErrReadOnly):
		out.Code = CodeReadOnlyProperty
	case errors.Is(err, props.ErrWrongObjectType):
		out.Code = CodeWrongObjectType
	case errors.Is(err, stream.ErrUnknownProtocol):
		out.Code = CodeStreamError
	case errors.Is(err, ir.ErrShapeMismatch),
		errors.Is(err, ir.ErrOutOfRange),
		errors.Is(err, buffer.ErrInvalidBuffer),
		errors.Is(err, buffer.ErrUnsupportedFormat),
		errors.Is(err, events.ErrAlreadyReleased),
		errors.Is(err, automation.ErrBatchExecuted),
		errors.Is(err, stream.ErrDuplicateProtocol),
		errors.As(err, &ce):
		out.Code = CodeInvalidValue
	default:
		out.Code = CodeInvalidValue
	}
	return out
}

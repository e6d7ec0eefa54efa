// Package errors is a drop-in replacement for Golang lib 'errors'.
package errors

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// Kind tells the caller whether a failure is part of normal operation or
// must terminate the program.
type Kind int

const (
	KindUnknown Kind = iota
	KindArgs
	KindSocketCreate
	KindSocketConfig
	KindTimeout
	KindRuntime
)

func (k Kind) String() string {
	switch k {
	case KindArgs:
		return "args"
	case KindSocketCreate:
		return "socket-create"
	case KindSocketConfig:
		return "socket-config"
	case KindTimeout:
		return "timeout"
	case KindRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Error is an error object with underlying error.
type Error struct {
	prefix  []interface{}
	message []interface{}
	kind    Kind
	inner   error
}

// Error implements error.Error().
func (err *Error) Error() string {
	builder := strings.Builder{}
	for _, prefix := range err.prefix {
		builder.WriteByte('[')
		builder.WriteString(fmt.Sprint(prefix))
		builder.WriteString("] ")
	}

	builder.WriteString(concat(err.message...))

	if err.inner != nil {
		builder.WriteString(" > ")
		builder.WriteString(err.inner.Error())
	}

	return builder.String()
}

// Base sets the underlying error.
func (err *Error) Base(e error) *Error {
	err.inner = e
	return err
}

// AtKind overrides the kind of this error.
func (err *Error) AtKind(k Kind) *Error {
	err.kind = k
	return err
}

// WithPrefix adds a bracketed component tag in front of the message.
func (err *Error) WithPrefix(prefix ...interface{}) *Error {
	err.prefix = append(err.prefix, prefix...)
	return err
}

// Kind returns the kind of this error, inherited from the inner error if unset.
func (err *Error) Kind() Kind {
	if err.kind != KindUnknown {
		return err.kind
	}
	var inner *Error
	if stderrors.As(err.inner, &inner) {
		return inner.Kind()
	}
	return KindUnknown
}

// Unwrap returns the underlying error.
func (err *Error) Unwrap() error {
	return err.inner
}

// String returns the string representation of this error.
func (err *Error) String() string {
	return err.Error()
}

// NewError returns a new error object with message formed from given arguments.
func NewError(msg ...interface{}) *Error {
	return &Error{
		message: msg,
	}
}

// New returns a new error object of the given kind.
func New(k Kind, msg ...interface{}) *Error {
	return &Error{
		message: msg,
		kind:    k,
	}
}

// KindOf returns the Kind of err, or KindTimeout for a bare network timeout.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if stderrors.As(err, &e) {
		if k := e.Kind(); k != KindUnknown {
			return k
		}
	}
	if isNetTimeout(err) {
		return KindTimeout
	}
	return KindUnknown
}

// IsTimeout reports whether err is an expected receive timeout.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsFatal reports whether err should terminate the program.
func IsFatal(err error) bool {
	return err != nil && !IsTimeout(err)
}

// Cause returns the innermost error of a chain.
func Cause(err error) error {
	for {
		next := stderrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func isNetTimeout(err error) bool {
	if stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func concat(v ...interface{}) string {
	parts := make([]string, 0, len(v))
	for _, value := range v {
		parts = append(parts, fmt.Sprint(value))
	}
	return strings.Join(parts, "")
}

// Is, As and Unwrap forward to the standard library so callers only import
// this package.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }

func Unwrap(err error) error { return stderrors.Unwrap(err) }

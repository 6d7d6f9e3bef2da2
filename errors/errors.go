// Package errors defines the error returned by every niri socket operation.
//
// An Error is either a local I/O failure (connecting, writing, reading or
// decoding failed on this side) or a remote error message sent back by niri.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind distinguishes local failures from errors reported by niri.
type Kind int

const (
	// KindIO is a failure to communicate with niri.
	KindIO Kind = iota
	// KindRemote is an error message sent by niri.
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IO error"
	case KindRemote:
		return "niri error"
	default:
		return fmt.Sprintf("Unknown error kind: %d", int(k))
	}
}

// Op is the operation that failed locally.
type Op int

const (
	OpNone Op = iota
	OpConnect
	OpWrite
	OpRead
	OpEncode
	OpDecode
)

func (o Op) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpConnect:
		return "connect"
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	case OpEncode:
		return "encode"
	case OpDecode:
		return "decode"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Error is the error type returned by the protocol layer.
// For KindIO, Err holds the underlying cause; for KindRemote, Message holds
// the text sent by niri and Err is nil.
type Error struct {
	Kind    Kind
	Op      Op
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "no error"
	}

	if e.Kind == KindRemote {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	s := fmt.Sprintf("%s (%s)", e.Kind, e.Op)
	if e.Message != "" {
		s = fmt.Sprintf("%s: %s", s, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (caused by: %v)", s, e.Err)
	}
	return s
}

// Unwrap returns the underlying error for error chain support
func (e *Error) Unwrap() error {
	return e.Err
}

// IOError returns the underlying cause of a local failure, or nil for a
// remote error.
func (e *Error) IOError() error {
	if e == nil || e.Kind != KindIO {
		return nil
	}
	if e.Err == nil {
		return stderrors.New(e.Message)
	}
	return e.Err
}

// RemoteMessage returns the message sent by niri, if this is a remote error.
func (e *Error) RemoteMessage() (string, bool) {
	if e == nil || e.Kind != KindRemote {
		return "", false
	}
	return e.Message, true
}

// NewIOError creates a local failure for op.
func NewIOError(op Op, message string, cause error) *Error {
	return &Error{
		Kind:    KindIO,
		Op:      op,
		Message: message,
		Err:     cause,
	}
}

// NewRemoteError creates an error carrying a message sent by niri.
func NewRemoteError(message string) *Error {
	return &Error{
		Kind:    KindRemote,
		Message: message,
	}
}

// IsIO reports whether err is, or wraps, a local failure.
func IsIO(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Kind == KindIO
}

// IsRemote reports whether err is, or wraps, an error sent by niri.
func IsRemote(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Kind == KindRemote
}

// RemoteMessage extracts the niri error message from err.
func RemoteMessage(err error) (string, bool) {
	var e *Error
	if !stderrors.As(err, &e) {
		return "", false
	}
	return e.RemoteMessage()
}

// Package fault defines the error taxonomy shared by the capture,
// backend, playback, and session packages. Every failure that can drive
// the session state machine into its Error state is one of these kinds.
package fault

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies a failure
type Kind int

const (
	// Unknown is the zero value for errors that carry no classification
	Unknown Kind = iota
	// PermissionDenied means the OS refused microphone access
	PermissionDenied
	// DeviceUnavailable means the capture device is missing, busy, or failed
	DeviceUnavailable
	// NetworkError means the backend request never got a valid HTTP response
	NetworkError
	// BackendFailed means the backend answered with an error of its own
	BackendFailed
	// DecodeError means reply audio could not be decoded
	DecodeError
	// PlaybackError means the output device failed during playback
	PlaybackError
	// InvalidState means the operation is not legal in the current state
	InvalidState
)

// String returns the snake_case name used in logs and JSON
func (k Kind) String() string {
	switch k {
	case PermissionDenied:
		return "permission_denied"
	case DeviceUnavailable:
		return "device_unavailable"
	case NetworkError:
		return "network_error"
	case BackendFailed:
		return "backend_failed"
	case DecodeError:
		return "decode_error"
	case PlaybackError:
		return "playback_error"
	case InvalidState:
		return "invalid_state"
	default:
		return "unknown"
	}
}

// Error is a classified failure with an optional wrapped cause
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates an Error with the given kind and message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that records err as its cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the cause for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the same operation could succeed.
// Transport failures and device failures are transient; a backend that
// processed the request and refused it will refuse it again.
func (e *Error) Retryable() bool {
	return e.Kind == NetworkError || e.Kind == DeviceUnavailable
}

// MarshalJSON renders the error for status endpoints
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind      string `json:"kind"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	}{
		Kind:      e.Kind.String(),
		Message:   e.Message,
		Retryable: e.Retryable(),
	})
}

// KindOf extracts the kind from anywhere in err's chain.
// It returns Unknown when no classified error is present.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// IsKind reports whether err's chain contains a fault of the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

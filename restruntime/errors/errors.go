// Package errors defines the error taxonomy shared by every layer of the
// runtime: the interface parser, the request builder, the pipeline, and the
// invocation engine all fail through these types so callers can use
// errors.As against a small, closed set of shapes instead of string
// matching.
package errors

import (
	"context"
	goerrors "errors"
	"fmt"
)

// BadDescription is returned by the interface parser when an operation
// description is internally inconsistent (duplicate placeholders, missing
// bindings, conflicting verbs, unsupported body type); no partial method
// plan is ever published. The request builder also returns it for a call
// whose arguments do not fit the plan (e.g. a missing placeholder argument
// or a body of the wrong Go type), and Client.Invoke returns it for an
// operation name that was never registered.
type BadDescription struct {
	Operation string
	Reason    string
}

func (e *BadDescription) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("bad operation description: %s", e.Reason)
	}
	return fmt.Sprintf("bad operation description for %q: %s", e.Operation, e.Reason)
}

// SerializationFailure is returned by the request builder when the codec
// refuses a body argument.
type SerializationFailure struct {
	Operation string
	Err       error
}

func (e *SerializationFailure) Error() string {
	return fmt.Sprintf("failed to serialize request body for %q: %v", e.Operation, e.Err)
}

func (e *SerializationFailure) Unwrap() error { return e.Err }

// TransportFailure wraps the transport's async failure modes
// (ConnectionFailed | Timeout | ProtocolError) as observed by the pipeline.
type TransportFailure struct {
	Operation string
	Kind      TransportFailureKind
	Err       error
}

// TransportFailureKind enumerates the transport-level failure modes.
type TransportFailureKind int

const (
	ConnectionFailed TransportFailureKind = iota
	Timeout
	ProtocolError
)

func (k TransportFailureKind) String() string {
	switch k {
	case ConnectionFailed:
		return "ConnectionFailed"
	case Timeout:
		return "Timeout"
	case ProtocolError:
		return "ProtocolError"
	default:
		return "Unknown"
	}
}

func (e *TransportFailure) Error() string {
	return fmt.Sprintf("transport failure (%s) for %q: %v", e.Kind, e.Operation, e.Err)
}

func (e *TransportFailure) Unwrap() error { return e.Err }

// UnexpectedStatus is the generic failure surfaced when a response's status
// code is outside a plan's expected set and no operation-specific error
// type could be constructed (or none was registered). Operation-specific
// error types constructed by the invocation engine carry the same fields
// and are expected to embed or mirror this shape; see plan.ErrorDescriptor.
type UnexpectedStatus struct {
	Operation    string
	StatusCode   int
	Status       string
	Message      string
	DecodedBody  any
	RawBody      []byte
	bodyWasBytes bool
}

// NewUnexpectedStatus builds the message `Status code S, "BODY"` for
// textual bodies, with the empty/byte-count special cases.
func NewUnexpectedStatus(operation string, statusCode int, status string, body []byte, isBinary bool, decoded any) *UnexpectedStatus {
	u := &UnexpectedStatus{
		Operation:    operation,
		StatusCode:   statusCode,
		Status:       status,
		DecodedBody:  decoded,
		RawBody:      body,
		bodyWasBytes: isBinary,
	}
	u.Message = fmt.Sprintf("Status code %d, %s", statusCode, renderBody(body, isBinary))
	return u
}

func renderBody(body []byte, isBinary bool) string {
	const truncateAt = 2048
	switch {
	case len(body) == 0:
		return "(empty body)"
	case isBinary:
		return fmt.Sprintf("(%d-byte body)", len(body))
	case len(body) > truncateAt:
		return `"` + string(body[:truncateAt]) + `...(truncated)"`
	default:
		return `"` + string(body) + `"`
	}
}

func (e *UnexpectedStatus) Error() string {
	return fmt.Sprintf("%s: unexpected status for %q", e.Message, e.Operation)
}

// DecodingFailure is returned when the response body could not be parsed
// by the codec selected from Content-Type, and the status was otherwise
// within the plan's expected set. Had the status been bad, decoding
// failure instead degrades to an UnexpectedStatus with a nil decoded body.
type DecodingFailure struct {
	Operation string
	Err       error
}

func (e *DecodingFailure) Error() string {
	return fmt.Sprintf("failed to decode response body for %q: %v", e.Operation, e.Err)
}

func (e *DecodingFailure) Unwrap() error { return e.Err }

// ErrorTypeConstructionFailed is returned when a plan's declared error type
// has no constructor matching the expected shape. Callers observe an
// UnexpectedStatus instead; this type exists so the condition itself is
// inspectable (e.g. for telemetry) via errors.As on the wrapped cause.
type ErrorTypeConstructionFailed struct {
	Operation string
	ErrorType string
	Err       error
}

func (e *ErrorTypeConstructionFailed) Error() string {
	return fmt.Sprintf("could not construct declared error type %q for %q: %v", e.ErrorType, e.Operation, e.Err)
}

func (e *ErrorTypeConstructionFailed) Unwrap() error { return e.Err }

// NotSupported is the default Resume hook's failure; see invoke.ResumeHook.
type NotSupported struct {
	Reason string
}

func (e *NotSupported) Error() string {
	if e.Reason == "" {
		return "operation not supported"
	}
	return fmt.Sprintf("operation not supported: %s", e.Reason)
}

// UnsupportedEncoding is returned by a Codec when asked to handle an
// encoding outside its enumerated set.
type UnsupportedEncoding struct {
	Encoding string
}

func (e *UnsupportedEncoding) Error() string {
	return fmt.Sprintf("unsupported encoding: %s", e.Encoding)
}

// IsCancelled reports whether err represents cooperative cancellation.
// Cancellation is a terminal state rather than an error value: callers
// should treat a cancelled call as an absence of result rather than as a
// failure to report to the user.
func IsCancelled(err error) bool {
	return goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded)
}

// Package faults provides the error taxonomy and the bounded recovery
// subsystem for inspection runs: a static catalog of classified error
// codes, the uniform error type every tool failure is converted into,
// and a RecoveryManager that applies per-kind remediation policies.
package faults

import "fmt"

// Kind classifies a failure. Tool runs convert every error into
// exactly one Kind before propagating.
type Kind string

const (
	KindParameter Kind = "parameter"
	KindImage     Kind = "image"
	KindCamera    Kind = "camera"
	KindInternal  Kind = "internal"
	KindNetwork   Kind = "network"
	KindFile      Kind = "file"
)

// Canonical codes per kind. The numbering is deliberate and stable;
// downstream consumers key on it.
const (
	CodeParameter = 400
	CodeFile      = 404
	CodeImage     = 422
	CodeInternal  = 500
	CodeCamera    = 502
	CodeNetwork   = 503
)

// Error is the uniform failure type propagated by a tool run.
type Error struct {
	Kind      Kind
	Code      int
	Message   string
	Component string
	Details   map[string]any

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s [%d]: %s: %s", e.Kind, e.Code, e.Component, e.Message)
	}
	return fmt.Sprintf("%s [%d]: %s", e.Kind, e.Code, e.Message)
}

// New creates an Error of the given kind with its canonical code.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: codeFor(kind), Message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithComponent sets the originating component and returns the error.
func (e *Error) WithComponent(name string) *Error {
	e.Component = name
	return e
}

// Wrap records the underlying cause and returns the error. The cause
// stays reachable through errors.Is and errors.As.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail records a detail entry and returns the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func codeFor(kind Kind) int {
	switch kind {
	case KindParameter:
		return CodeParameter
	case KindImage:
		return CodeImage
	case KindCamera:
		return CodeCamera
	case KindNetwork:
		return CodeNetwork
	case KindFile:
		return CodeFile
	default:
		return CodeInternal
	}
}

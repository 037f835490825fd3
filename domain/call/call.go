// Package call provides value types for module-to-module calls.
// These are transport-neutral: the same types describe a call whether
// it is dispatched in-process or over HTTP.
package call

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how a call reaches its target module.
type Mode string

const (
	// ModeInProcess dispatches directly to a locally registered surface.
	ModeInProcess Mode = "in_process"

	// ModeHTTP dispatches over HTTP to a networked module.
	ModeHTTP Mode = "http"

	// ModeAuto defers the choice to resolution. It is a request-time
	// instruction only; a resolved session always holds a concrete mode.
	ModeAuto Mode = "auto"
)

// ParseMode parses a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in_process", "in-process", "inprocess":
		return ModeInProcess, nil
	case "http":
		return ModeHTTP, nil
	case "auto", "":
		return ModeAuto, nil
	}
	return "", fmt.Errorf("unknown communication mode %q", s)
}

// Concrete reports whether the mode is a resolved dispatch mode
// rather than the auto instruction.
func (m Mode) Concrete() bool {
	return m == ModeInProcess || m == ModeHTTP
}

// Request describes a single call to a named operation on a module.
type Request struct {
	Module    string
	Operation string
	Payload   map[string]any

	// CorrelationID ties the call to the caller's logical operation.
	// Assigned by the client if empty.
	CorrelationID string
}

// Kind classifies a call failure. Kinds are wire-stable strings: they
// travel unchanged across the HTTP boundary so a remote failure reaches
// the caller with the kind the remote side reported.
type Kind string

const (
	// KindModuleUnavailable means neither a local surface nor an address
	// could be resolved for the module name.
	KindModuleUnavailable Kind = "module_unavailable"

	// KindOperationNotFound means the resolved target exists but does not
	// expose the requested operation.
	KindOperationNotFound Kind = "operation_not_found"

	// KindTransport means a networked call could not be sent, or no
	// response arrived within the timeout.
	KindTransport Kind = "transport_failure"

	// KindApplication means the module executed the operation and itself
	// reported a failure. Local operations returning an error map here
	// too, so callers cannot tell the backing path apart.
	KindApplication Kind = "application_failure"

	// KindMalformedResponse means a response was received but could not
	// be interpreted as a valid result shape.
	KindMalformedResponse Kind = "malformed_response"

	// KindConfiguration means an explicit mode was requested that cannot
	// be satisfied. Deployment mistake; never worth retrying.
	KindConfiguration Kind = "configuration_error"
)

// Failure is the error type for every failed call. Exactly one of a
// successful payload or a Failure reaches the caller.
type Failure struct {
	Kind    Kind
	Message string
	Cause   error
}

// NewFailure creates a failure with a formatted message.
func NewFailure(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapFailure creates a failure wrapping an underlying cause.
func WrapFailure(kind Kind, cause error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying cause, if any.
func (f *Failure) Unwrap() error {
	return f.Cause
}

// KindOf returns the failure kind carried by err, or the empty kind
// if err is not a call failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsConfiguration reports whether err is a configuration failure.
// Configuration failures indicate a deployment mistake and should not
// be retried; every other kind is potentially transient.
func IsConfiguration(err error) bool {
	return KindOf(err) == KindConfiguration
}

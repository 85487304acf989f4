// Package agenterrors defines the closed error taxonomy used across the
// agent core (clock, property store, timer, transport, HSM, lifecycle).
//
// Author: momentics <momentics@gmail.com>
//
// Every constructor returns an *AgentError wrapping an ErrorKind
// discriminant plus structured fields, so callers can fmt.Errorf("...: %w")
// it onward without losing the kind (errors.As still resolves to *AgentError).
package agenterrors

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the error taxonomy without resorting to string
// matching.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota

	// Property errors
	KindPropertyNotFound
	KindPropertyTypeError
	KindPropertyAccessDenied
	KindPropertyValidation
	KindEnvironmentVariable

	// Timer errors
	KindTimerNotFound
	KindInvalidDelay
	KindInvalidDeadline

	// Transport errors
	KindClaimFailed
	KindBackPressured
	KindNotConnected
	KindStreamNotFound

	// Agent lifecycle
	KindStateInvalid
	KindCommunicationsNotInitialized
	KindCommunicationsInitFailed
	KindTermination
)

func (k ErrorKind) String() string {
	switch k {
	case KindPropertyNotFound:
		return "PropertyNotFound"
	case KindPropertyTypeError:
		return "PropertyTypeError"
	case KindPropertyAccessDenied:
		return "PropertyAccessDenied"
	case KindPropertyValidation:
		return "PropertyValidation"
	case KindEnvironmentVariable:
		return "EnvironmentVariable"
	case KindTimerNotFound:
		return "TimerNotFound"
	case KindInvalidDelay:
		return "InvalidDelay"
	case KindInvalidDeadline:
		return "InvalidDeadline"
	case KindClaimFailed:
		return "ClaimFailed"
	case KindBackPressured:
		return "BackPressured"
	case KindNotConnected:
		return "NotConnected"
	case KindStreamNotFound:
		return "StreamNotFound"
	case KindStateInvalid:
		return "StateInvalid"
	case KindCommunicationsNotInitialized:
		return "CommunicationsNotInitialized"
	case KindCommunicationsInitFailed:
		return "CommunicationsInitFailed"
	case KindTermination:
		return "Termination"
	default:
		return "Unknown"
	}
}

// AgentError is the single sum-type error value propagated through the core.
type AgentError struct {
	Kind   ErrorKind
	Fields map[string]any
	cause  error
}

func (e *AgentError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s %v: %v", e.Kind, e.Fields, e.cause)
	}
	return fmt.Sprintf("%s %v", e.Kind, e.Fields)
}

func (e *AgentError) Unwrap() error { return e.cause }

// Is allows errors.Is(err, agenterrors.Termination) to match regardless of
// payload, since Termination is a sentinel rather than a bug report.
func (e *AgentError) Is(target error) bool {
	var other *AgentError
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newErr(kind ErrorKind, cause error, fields map[string]any) *AgentError {
	return &AgentError{Kind: kind, Fields: fields, cause: cause}
}

// --- Property errors ---

func PropertyNotFound(key string) *AgentError {
	return newErr(KindPropertyNotFound, nil, map[string]any{"key": key})
}

func PropertyTypeError(key string, expected, actual string) *AgentError {
	return newErr(KindPropertyTypeError, nil, map[string]any{"key": key, "expected": expected, "actual": actual})
}

func PropertyAccessDenied(key string, mode string) *AgentError {
	return newErr(KindPropertyAccessDenied, nil, map[string]any{"key": key, "mode": mode})
}

func PropertyValidation(key string, message string) *AgentError {
	return newErr(KindPropertyValidation, nil, map[string]any{"key": key, "message": message})
}

func EnvironmentVariable(name string) *AgentError {
	return newErr(KindEnvironmentVariable, nil, map[string]any{"name": name})
}

// --- Timer errors ---

func TimerNotFound(id uint64) *AgentError {
	return newErr(KindTimerNotFound, nil, map[string]any{"id": id})
}

func InvalidDelay(delayNs int64) *AgentError {
	return newErr(KindInvalidDelay, nil, map[string]any{"delay_ns": delayNs})
}

func InvalidDeadline(deadlineNs int64) *AgentError {
	return newErr(KindInvalidDeadline, nil, map[string]any{"deadline_ns": deadlineNs})
}

// --- Transport errors ---

func ClaimFailed(publication string, length, attempts int) *AgentError {
	return newErr(KindClaimFailed, nil, map[string]any{"publication": publication, "length": length, "attempts": attempts})
}

func BackPressured(publication string, attempts int) *AgentError {
	return newErr(KindBackPressured, nil, map[string]any{"publication": publication, "attempts": attempts})
}

func NotConnected(publication string) *AgentError {
	return newErr(KindNotConnected, nil, map[string]any{"publication": publication})
}

func StreamNotFound(name string, index int) *AgentError {
	return newErr(KindStreamNotFound, nil, map[string]any{"name": name, "index": index})
}

// --- Agent lifecycle ---

func StateInvalid(state string, operation string) *AgentError {
	return newErr(KindStateInvalid, nil, map[string]any{"state": state, "operation": operation})
}

func CommunicationsNotInitialized(operation string) *AgentError {
	return newErr(KindCommunicationsNotInitialized, nil, map[string]any{"operation": operation})
}

func CommunicationsInitFailed(cause error) *AgentError {
	return newErr(KindCommunicationsInitFailed, cause, nil)
}

// Termination is the sentinel raised from Exit.on_entry and recognized by
// the host runner as a deliberate request to stop calling do_work.
var Termination = newErr(KindTermination, nil, nil)

// IsTermination reports whether err is (or wraps) the Termination sentinel.
func IsTermination(err error) bool {
	return errors.Is(err, Termination)
}

// Package derrors provides code-tagged domain errors.
//
// Services return these instead of raw errors so transport layers can map
// failures to responses and callers can branch on the failure class without
// string matching. Construct with New/Wrap; inspect with HasCode.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidInput marks data errors: malformed observations, bad
	// timestamps, unknown enum values. Rejected at the boundary, never
	// coerced.
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound marks lookups that matched nothing.
	CodeNotFound Code = "not_found"

	// CodeConfig marks configuration errors such as ambiguous schedule
	// overlaps or unknown locations. Callers degrade to a deterministic
	// fallback and log.
	CodeConfig Code = "config"

	// CodeOutOfOrder marks observations delivered behind an identity's
	// already-processed timestamp. The debounce state machine is
	// order-sensitive, so these are rejected rather than re-sequenced.
	CodeOutOfOrder Code = "out_of_order"

	// CodeIntegrity marks a tamper-detected signal from ledger
	// verification. Never auto-corrected; surfaced as a security incident.
	CodeIntegrity Code = "integrity"

	// CodeRedacted marks decryption attempts against an identity whose
	// payload key has been destroyed.
	CodeRedacted Code = "redacted"

	// CodeUnauthorized marks missing or invalid credentials on admin
	// surfaces.
	CodeUnauthorized Code = "unauthorized"

	// CodeRateLimited marks requests rejected by ingest protection.
	CodeRateLimited Code = "rate_limited"

	// CodeInternal marks unrecoverable failures, ledger storage errors
	// included. The pipeline halts rather than continue with an audit gap.
	CodeInternal Code = "internal"
)

// Error is a domain error carrying a classification code.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

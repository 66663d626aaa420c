// Package domainerrors defines the error taxonomy shared by services,
// handlers, and the CLI. Stores return sentinel errors for infrastructure
// facts; services translate them into coded domain errors so transports can
// map them without inspecting error strings.
package domainerrors

import "errors"

// Code identifies the class of a domain error. Codes are wire-stable: they
// appear verbatim in HTTP error bodies and CLI output.
type Code string

const (
	// CodeBadRequest covers malformed or out-of-range caller input. The
	// caller can correct and retry immediately.
	CodeBadRequest Code = "bad_request"

	// CodeUnauthorized covers missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"

	// CodeNotFound covers lookups of entities that do not exist, such as an
	// unknown model version or audit event id.
	CodeNotFound Code = "not_found"

	// CodeGovernance covers model versions that exist but are not cleared
	// for use. Never downgraded to CodeNotFound: operators alert on this
	// case specifically.
	CodeGovernance Code = "governance_rejected"

	// CodeStorage covers durable-storage failures. A decision whose audit
	// write failed with this code must be treated as not audited.
	CodeStorage Code = "storage_failure"

	// CodeUnavailable covers dependencies that are not ready, such as a
	// model package that failed to load at startup.
	CodeUnavailable Code = "unavailable"

	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Message is safe to show to callers except
// for internal and storage codes, which transports redact.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New builds a domain error with the given code and caller-facing message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a domain error that preserves the underlying cause for
// errors.Is/As chains and logging.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// CodeOf extracts the domain error code from an error chain. Non-domain
// errors report CodeInternal.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message from an error chain, falling
// back to the raw error text for non-domain errors.
func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

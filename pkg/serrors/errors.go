package serrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy: validation and policy
// errors go back to the caller untouched, conflict errors require a re-fetch,
// concurrency errors are safe to retry, integrity errors abort the
// transaction and must reach an operator.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindPolicy      Kind = "policy"
	KindConcurrency Kind = "concurrency"
	KindIntegrity   Kind = "integrity"
	KindNotFound    Kind = "not_found"
)

type BaseError struct {
	Code         string
	Kind         Kind
	Message      string
	Cause        error
	TemplateData map[string]string
}

func NewError(code, message string, kind Kind) *BaseError {
	return &BaseError{Code: code, Kind: kind, Message: message}
}

func Validation(code, message string) *BaseError  { return NewError(code, message, KindValidation) }
func Conflict(code, message string) *BaseError    { return NewError(code, message, KindConflict) }
func Policy(code, message string) *BaseError      { return NewError(code, message, KindPolicy) }
func Concurrency(code, message string) *BaseError { return NewError(code, message, KindConcurrency) }
func Integrity(code, message string) *BaseError   { return NewError(code, message, KindIntegrity) }
func NotFound(code, message string) *BaseError    { return NewError(code, message, KindNotFound) }

func (e *BaseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *BaseError) Unwrap() error { return e.Cause }

// WithCause returns a copy carrying the underlying error.
func (e *BaseError) WithCause(cause error) *BaseError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// WithTemplateData returns a copy carrying values for message rendering
// in the presentation layer.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	clone := *e
	clone.TemplateData = data
	return &clone
}

// KindOf reports the Kind of err, or KindIntegrity for errors outside the
// taxonomy: an unclassified failure must never be retried or shown verbatim.
func KindOf(err error) Kind {
	var base *BaseError
	if errors.As(err, &base) {
		return base.Kind
	}
	return KindIntegrity
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code string) bool {
	var base *BaseError
	if errors.As(err, &base) {
		return base.Code == code
	}
	return false
}

// IsRetryable reports whether the caller may transparently retry.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConcurrency
}

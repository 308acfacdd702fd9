// Package errors defines the coded errors every layer returns and the HTTP
// contract each code maps to. Handlers never pick status codes themselves.
package errors

import (
	stdErrors "errors"
	"net/http"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeStateConflict   Code = "STATE_CONFLICT"
	CodeIdempotency     Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit       Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeDependency      Code = "DEPENDENCY_ERROR"
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
	CodeStorage         Code = "STORAGE_ERROR"
	CodeConversion      Code = "CONVERSION_ERROR"
	CodeSignatureEmbed  Code = "SIGNATURE_EMBED_ERROR"
)

// Metadata is the client-facing contract for a code. When DetailsAllowed is
// false the response carries PublicMessage only.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func meta(status int, retryable bool, msg string, details bool) Metadata {
	return Metadata{HTTPStatus: status, Retryable: retryable, PublicMessage: msg, DetailsAllowed: details}
}

var catalog = map[Code]Metadata{
	CodeValidation:      meta(http.StatusBadRequest, false, "validation failed", true),
	CodeUnauthorized:    meta(http.StatusUnauthorized, false, "authentication required", false),
	CodeForbidden:       meta(http.StatusForbidden, false, "access denied", false),
	CodeNotFound:        meta(http.StatusNotFound, false, "resource not found", false),
	CodeConflict:        meta(http.StatusConflict, false, "conflict detected", false),
	CodeStateConflict:   meta(http.StatusUnprocessableEntity, false, "state transition disallowed", true),
	CodeIdempotency:     meta(http.StatusConflict, false, "idempotency key reused", true),
	CodeRateLimit:       meta(http.StatusTooManyRequests, false, "rate limit exceeded", false),
	CodeInternal:        meta(http.StatusInternalServerError, true, "internal server error", false),
	CodeDependency:      meta(http.StatusServiceUnavailable, true, "dependency unavailable", true),
	CodePayloadTooLarge: meta(http.StatusRequestEntityTooLarge, false, "payload too large", true),
	CodeStorage:         meta(http.StatusServiceUnavailable, true, "artifact storage unavailable", false),
	CodeConversion:      meta(http.StatusBadGateway, true, "document conversion failed", false),
	CodeSignatureEmbed:  meta(http.StatusUnprocessableEntity, false, "signature could not be applied", true),
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := catalog[code]; ok {
		return m
	}
	return catalog[CodeInternal]
}

// Error is a coded error with an optional cause and client-safe details.
// A nil *Error behaves as CodeInternal with no message.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap is New with a cause; a nil err yields a plain New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode checks the outermost *Error only, so a wrapping layer can
// reclassify an inner failure.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

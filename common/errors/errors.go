package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of a sentinel Error carrying err. Sentinels are shared,
// so they must never be mutated in place.
func Wrap(base *Error, err error) *Error {
	return New(base.Code, base.Message, err)
}

// ErrInternalServer is the base for failures raised inside the service
// itself, such as recovered panics.
var ErrInternalServer = New(http.StatusInternalServerError, "Internal Server Error", nil)

// ProviderErrorKind tags the category of a payment provider failure.
type ProviderErrorKind int

const (
	// KindUnknown covers provider failures with no dedicated category
	// (authentication, rate limiting, transport).
	KindUnknown ProviderErrorKind = iota
	// KindCard is a declined or otherwise unusable card.
	KindCard
	// KindInvalidRequest is a malformed or semantically invalid request.
	KindInvalidRequest
	// KindAPI is an outage or internal failure on the provider side.
	KindAPI
	// KindIdempotency is an idempotency key conflict reported by the provider.
	KindIdempotency
)

func (k ProviderErrorKind) String() string {
	switch k {
	case KindCard:
		return "card_error"
	case KindInvalidRequest:
		return "invalid_request_error"
	case KindAPI:
		return "api_error"
	case KindIdempotency:
		return "idempotency_error"
	default:
		return "unknown_error"
	}
}

// ProviderError is a payment provider failure normalized at the adapter
// boundary. Code and Param are only set by some kinds.
type ProviderError struct {
	Kind       ProviderErrorKind
	Message    string
	Code       string
	Param      string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider %s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationError aggregates every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	switch len(e.Fields) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed: %s: %s (and %d more)", e.Fields[0].Field, e.Fields[0].Message, len(e.Fields)-1)
}

// NewValidationError builds a ValidationError from the given field failures.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// IsProviderKind reports whether err wraps a ProviderError of the given kind.
func IsProviderKind(err error, kind ProviderErrorKind) bool {
	var pe *ProviderError
	return goerrors.As(err, &pe) && pe.Kind == kind
}

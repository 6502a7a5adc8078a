package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for transport mapping.
type Kind uint8

const (
	Unexpected Kind = iota
	Validation
	NotFound
	Authentication
	Authorization
	InvalidToken
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "VALIDATION_ERROR"
	case NotFound:
		return "NOT_FOUND"
	case Authentication:
		return "UNAUTHORIZED"
	case Authorization:
		return "FORBIDDEN"
	case InvalidToken:
		return "INVALID_TOKEN"
	default:
		return "INTERNAL_ERROR"
	}
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the application error carried from services to handlers.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind whose cause is err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewValidation builds a Validation error whose message lists every field
// violation as "field: message", comma separated.
func NewValidation(fields ...FieldError) *Error {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return &Error{Kind: Validation, Message: strings.Join(parts, ", "), Fields: fields}
}

// KindOf reports the kind of the first *Error in err's chain, or Unexpected.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unexpected
}

// As is a shorthand for errors.As with *Error.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}

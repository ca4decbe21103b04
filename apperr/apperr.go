// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error by who has to act on it.
type Kind string

const (
	KindUnknown        Kind = "unknown"
	KindInput          Kind = "input"
	KindAuthorization  Kind = "authorization"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindInfrastructure Kind = "infrastructure"
)

// Error is the domain error type carried across package boundaries.
type Error struct {
	Kind     Kind              // Machine-readable classification
	Message  string            // User-facing message
	Metadata map[string]string // Extra context, e.g. the existing proposal status
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a domain error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithMetadata creates a domain error with metadata.
func WithMetadata(kind Kind, message string, metadata map[string]string) *Error {
	return &Error{Kind: kind, Message: message, Metadata: metadata}
}

// WrapWithMetadata creates a domain error with both metadata and a cause.
func WrapWithMetadata(kind Kind, message string, metadata map[string]string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Metadata: metadata, Cause: cause}
}

// Input, Authorization, Conflict and NotFound are shorthands for New.
func Input(message string) *Error         { return New(KindInput, message) }
func Authorization(message string) *Error { return New(KindAuthorization, message) }
func Conflict(message string) *Error      { return New(KindConflict, message) }
func NotFound(message string) *Error      { return New(KindNotFound, message) }

// KindOf returns the kind of the first *Error in err's chain.
// Errors that never passed through this package are infrastructure errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}

// MetadataOf returns the metadata of the first *Error in err's chain.
func MetadataOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}

// UserMessage returns the message safe to show to the initiating user.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInfrastructure {
		return e.Error()
	}
	return "Something went wrong, try again later"
}

// HTTPStatus maps an error to the HTTP status used by the JSON API.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInput:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

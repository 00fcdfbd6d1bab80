// Package apperr defines the error kinds shared by every component boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for propagation and HTTP mapping.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindFetch      Kind = "FETCH_ERROR"
	KindParse      Kind = "PARSE_ERROR"
	KindStorage    Kind = "STORAGE_ERROR"
	KindAuth       Kind = "AUTH_ERROR"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindInternal   Kind = "INTERNAL_ERROR"
)

// Error carries a kind, the failing operation and the wrapped cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so errors.Is(err, apperr.Storage) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	Validation = &Error{Kind: KindValidation}
	Fetch      = &Error{Kind: KindFetch}
	Parse      = &Error{Kind: KindParse}
	Storage    = &Error{Kind: KindStorage}
	Auth       = &Error{Kind: KindAuth}
	NotFound   = &Error{Kind: KindNotFound}
	Conflict   = &Error{Kind: KindConflict}
)

// New builds an error of the given kind.
func New(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

func ValidationError(op, message string) *Error {
	return New(KindValidation, op, message, nil)
}

func FetchError(op string, cause error) *Error {
	return New(KindFetch, op, "fetch failed", cause)
}

func ParseError(op string, cause error) *Error {
	return New(KindParse, op, "parse failed", cause)
}

func StorageError(op string, cause error) *Error {
	return New(KindStorage, op, "storage error", cause)
}

func AuthError(op string, cause error) *Error {
	return New(KindAuth, op, "unauthorized", cause)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns a short human-readable message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "unexpected error"
}

// HTTPStatus maps an error to the status code used by the v1 API.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindFetch:
		return http.StatusBadGateway
	case KindParse:
		return http.StatusUnprocessableEntity
	case KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Package errors provides the coded error type the coursemap hosts report
// to users and HTTP clients.
//
// Library packages return plain sentinel errors (diagram.ErrCycle,
// course.ErrUnknownParent, ...). The CLI and the preview server wrap them
// with a [Code] at the boundary so the terminal can print a short message
// and the server can pick a status code:
//
//	if err := course.Load(path); err != nil {
//		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "cannot read %s", path)
//	}
//
// # Error Codes
//
//   - INVALID_*: bad user input
//   - *NOT_FOUND: missing files or nodes
//   - READ_ONLY, CONFLICT: the editor refused a change
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidViewport Code = "INVALID_VIEWPORT"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeNodeNotFound Code = "NODE_NOT_FOUND"

	ErrCodeReadOnly Code = "READ_ONLY"
	ErrCodeConflict Code = "CONFLICT" // a drag or delete is in progress

	ErrCodeCacheUnavailable Code = "CACHE_UNAVAILABLE"
	ErrCodeInternal         Code = "INTERNAL_ERROR"
	ErrCodeUnsupported      Code = "UNSUPPORTED"
)

// Error is an error with a code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message and cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix. Plain errors
// are returned as is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps err's code to a response status.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidDocument,
		ErrCodeInvalidPath, ErrCodeInvalidViewport:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeFileNotFound, ErrCodeNodeNotFound:
		return http.StatusNotFound
	case ErrCodeReadOnly:
		return http.StatusForbidden
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	case ErrCodeCacheUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

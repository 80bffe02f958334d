package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes surfaced to API callers. Internal detail (storage
// errors, stack traces) never rides on these.
const (
	CodeNotFound         = "not_found"
	CodeInvalidArgument  = "invalid_argument"
	CodeNotReady         = "not_ready"
	CodeExtractionFailed = "extraction_failed"
	CodeComparisonFailed = "comparison_failed"
	CodeInternal         = "internal"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

func InvalidArgument(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeInvalidArgument, fmt.Errorf(format, args...))
}

// NotReady signals a job that exists but has not reached a terminal state.
func NotReady(format string, args ...any) *Error {
	return New(http.StatusAccepted, CodeNotReady, fmt.Errorf(format, args...))
}

func ExtractionFailed(err error) *Error {
	return New(http.StatusInternalServerError, CodeExtractionFailed, err)
}

func ComparisonFailed(err error) *Error {
	return New(http.StatusInternalServerError, CodeComparisonFailed, err)
}

// CodeOf extracts the stable code from any error, defaulting to internal.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return CodeInternal
}

// StatusOf extracts the HTTP status from any error, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// StatusForCode maps a stable code back to its HTTP status, for errors
// rehydrated from storage (failed job rows).
func StatusForCode(code string) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotReady:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

func IsCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}

package venue

import (
	"fmt"
)

// Code classifies a gateway failure independently of transport detail.
type Code string

const (
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodePermissionDenied  Code = "PERMISSION_DENIED"
	CodeNotFound          Code = "NOT_FOUND"
	CodeResourceExhausted Code = "RESOURCE_EXHAUSTED"
	CodeUnavailable       Code = "UNAVAILABLE"
	CodeDeadlineExceeded  Code = "DEADLINE_EXCEEDED"
	CodeInternal          Code = "INTERNAL"
)

// codeForStatus maps an HTTP status to a Code.
func codeForStatus(status int) Code {
	switch {
	case status == 400:
		return CodeInvalidArgument
	case status == 401:
		return CodeUnauthenticated
	case status == 403:
		return CodePermissionDenied
	case status == 404:
		return CodeNotFound
	case status == 429:
		return CodeResourceExhausted
	case status == 504:
		return CodeDeadlineExceeded
	case status >= 500:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// Error is a failure reported by the gateway or its transport.
type Error struct {
	HTTPStatus int    // 0 when the request never completed
	Code       Code
	Message    string
	Body       []byte // Raw response body, if any
}

func (e *Error) Error() string {
	if e.HTTPStatus == 0 {
		return fmt.Sprintf("gateway error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gateway error %d (%s): %s", e.HTTPStatus, e.Code, e.Message)
}

// Temporary reports whether the same call may succeed if repeated later.
func (e *Error) Temporary() bool {
	switch e.Code {
	case CodeUnavailable, CodeResourceExhausted, CodeDeadlineExceeded:
		return true
	}
	return false
}

// ValidationError is raised synchronously for malformed arguments, before
// anything is sent to the gateway.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func errRequired(field string) error {
	return &ValidationError{Field: field, Reason: "value is required"}
}

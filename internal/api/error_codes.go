package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a machine-readable error code for JSON error output.
type ErrorCode string

const (
	// ErrBadRequest indicates a malformed request (HTTP 400).
	ErrBadRequest ErrorCode = "bad_request"
	// ErrUnauthorized indicates the session is missing or expired (HTTP 401).
	ErrUnauthorized ErrorCode = "unauthorized"
	// ErrForbidden indicates the restaurant lacks permission (HTTP 403).
	ErrForbidden ErrorCode = "forbidden"
	// ErrNotFound indicates the requested resource does not exist (HTTP 404).
	ErrNotFound ErrorCode = "not_found"
	// ErrConflict indicates a conflict with current state (HTTP 409).
	ErrConflict ErrorCode = "conflict"
	// ErrValidation indicates input validation failed (HTTP 422 or local checks).
	ErrValidation ErrorCode = "validation_failed"
	// ErrRateLimited indicates too many requests (HTTP 429).
	ErrRateLimited ErrorCode = "rate_limited"
	// ErrServerError indicates an internal server error (HTTP 5xx).
	ErrServerError ErrorCode = "server_error"
	// ErrTimeout indicates the request timed out.
	ErrTimeout ErrorCode = "timeout"
	// ErrNetwork indicates the server could not be reached.
	ErrNetwork ErrorCode = "network_error"
	// ErrCanceled indicates the request was abandoned by the caller.
	ErrCanceled ErrorCode = "canceled"
	// ErrRejected indicates the backend declined the request in its envelope.
	ErrRejected ErrorCode = "rejected"
	// ErrUnknown indicates an unknown or unclassified error.
	ErrUnknown ErrorCode = "unknown"
)

// IsRetryable returns true if errors with this code may succeed on a later
// attempt. The client itself never retries.
func (c ErrorCode) IsRetryable() bool {
	switch c {
	case ErrRateLimited, ErrServerError, ErrTimeout, ErrNetwork:
		return true
	default:
		return false
	}
}

// Suggestion returns a human-readable hint for resolving this error.
func (c ErrorCode) Suggestion() string {
	switch c {
	case ErrUnauthorized:
		return "Run 'mangiee auth login' to sign in again"
	case ErrForbidden:
		return "Check that your restaurant account is approved"
	case ErrNotFound:
		return "Verify the resource ID exists"
	case ErrRateLimited:
		return "Wait a moment and retry"
	case ErrValidation:
		return "Check the input values"
	case ErrBadRequest:
		return "Check the request format and parameters"
	case ErrConflict:
		return "The resource state may have changed; refresh and retry"
	case ErrServerError:
		return "The server encountered an error; try again later"
	case ErrTimeout:
		return "The request timed out; check network connectivity and retry"
	case ErrNetwork:
		return "Check your internet connection and the API URL"
	case ErrRejected:
		return "The server declined the request; fix what the message describes and retry"
	default:
		return ""
	}
}

// ErrorCodeFromStatus maps an HTTP status code to an ErrorCode.
func ErrorCodeFromStatus(statusCode int) ErrorCode {
	switch statusCode {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	case 422:
		return ErrValidation
	case 429:
		return ErrRateLimited
	default:
		if statusCode >= 500 && statusCode < 600 {
			return ErrServerError
		}
		return ErrUnknown
	}
}

// StructuredError provides machine-readable error information.
type StructuredError struct {
	Code          ErrorCode      `json:"code"`
	Message       string         `json:"message"`
	Retryable     bool           `json:"retryable"`
	Suggestion    string         `json:"suggestion,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	AllowedValues []string       `json:"allowed_values,omitempty"`
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// MarshalJSON implements custom JSON marshaling.
func (e *StructuredError) MarshalJSON() ([]byte, error) {
	type Alias StructuredError
	return json.Marshal((*Alias)(e))
}

// NewStructuredError creates a StructuredError from an ErrorCode and message.
func NewStructuredError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:       code,
		Message:    message,
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
	}
}

// NewValidationError creates a StructuredError for an enum-style flag,
// including the allowed values.
func NewValidationError(field string, got string, allowed []string) *StructuredError {
	return &StructuredError{
		Code:          ErrValidation,
		Message:       fmt.Sprintf("invalid %s %q: must be one of %s", field, got, strings.Join(allowed, ", ")),
		Suggestion:    fmt.Sprintf("Use one of: %s", strings.Join(allowed, ", ")),
		AllowedValues: allowed,
		Context:       map[string]any{"field": field, "got": got},
	}
}

func errorCodeFromKind(e *Error) ErrorCode {
	switch e.Kind {
	case KindTimeout:
		return ErrTimeout
	case KindAuth:
		return ErrUnauthorized
	case KindTransport:
		return ErrNetwork
	case KindCanceled:
		return ErrCanceled
	case KindRejected:
		return ErrRejected
	case KindHTTP:
		return ErrorCodeFromStatus(e.StatusCode)
	default:
		return ErrUnknown
	}
}

// StructuredErrorFromError converts any error to a StructuredError.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		code := errorCodeFromKind(apiErr)
		ctx := map[string]any{"kind": apiErr.Kind.String()}
		if apiErr.StatusCode != 0 {
			ctx["status_code"] = apiErr.StatusCode
		}
		if apiErr.RequestID != "" {
			ctx["request_id"] = apiErr.RequestID
		}
		return &StructuredError{
			Code:       code,
			Message:    apiErr.Message,
			Retryable:  code.IsRetryable(),
			Suggestion: code.Suggestion(),
			Context:    ctx,
		}
	}

	return &StructuredError{
		Code:    ErrUnknown,
		Message: err.Error(),
	}
}

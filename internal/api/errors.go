package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed request.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindTimeout means no response arrived before the request deadline.
	KindTimeout
	// KindAuth is any 401 response.
	KindAuth
	// KindHTTP is any other non-2xx response.
	KindHTTP
	// KindTransport covers DNS, connection and TLS failures.
	KindTransport
	// KindCanceled means the caller canceled the context.
	KindCanceled
	// KindDecode means a 2xx response body was not a valid envelope.
	KindDecode
	// KindRejected means a 2xx envelope came back with success false.
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindHTTP:
		return "http"
	case KindTransport:
		return "transport"
	case KindCanceled:
		return "canceled"
	case KindDecode:
		return "decode"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

const (
	// MsgSessionExpired replaces the backend message on every 401.
	MsgSessionExpired = "Session expired. Please login again."
	// MsgTimeout is reported when a request exceeds its deadline.
	MsgTimeout = "Request timeout - server took too long to respond"
	// MsgCanceled is reported when the caller abandons a request.
	MsgCanceled = "Request canceled"
	// MsgBadResponse is reported when a success body cannot be decoded.
	MsgBadResponse = "Server returned an unexpected response"
	// MsgRejected is reported for a success:false envelope with no message.
	MsgRejected = "Request was not successful"
)

// Error is the only error type the request executor returns. Message is
// always safe to show to an end user.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	RequestID  string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newHTTPError(status int, reason, backendMessage, requestID string) *Error {
	if status == http.StatusUnauthorized {
		return &Error{Kind: KindAuth, StatusCode: status, Message: MsgSessionExpired, RequestID: requestID}
	}
	msg := backendMessage
	if msg == "" {
		if reason == "" {
			reason = http.StatusText(status)
		}
		msg = strings.TrimSpace(fmt.Sprintf("HTTP %d: %s", status, reason))
	}
	return &Error{Kind: KindHTTP, StatusCode: status, Message: msg, RequestID: requestID}
}

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsAuthError reports whether err is an expired or missing session.
func IsAuthError(err error) bool { return KindOf(err) == KindAuth }

// IsTransportError reports whether err is a network-level failure.
func IsTransportError(err error) bool { return KindOf(err) == KindTransport }

// IsCanceled reports whether the caller canceled the request.
func IsCanceled(err error) bool { return KindOf(err) == KindCanceled }

// IsNotFoundError reports whether err is an HTTP 404.
func IsNotFoundError(err error) bool {
	return KindOf(err) == KindHTTP && StatusOf(err) == http.StatusNotFound
}

package api

import "strings"

// Envelope is the uniform wrapper every backend response uses. Success
// responses carry Data; failures carry a user-displayable Message.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Empty is the payload type for operations whose data is ignored.
type Empty = map[string]any

// Err returns a KindRejected *Error when the backend answered 2xx but set
// success to false. Message falls back to the error field.
func (e *Envelope[T]) Err() error {
	if e == nil || e.Success {
		return nil
	}
	msg := firstNonEmpty(strings.TrimSpace(e.Message), strings.TrimSpace(e.Error), MsgRejected)
	return &Error{Kind: KindRejected, Message: msg}
}

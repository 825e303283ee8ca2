package chat

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeBadRequest   ErrorType = "BAD_REQUEST"
	ErrTypeAccessDenied ErrorType = "ACCESS_DENIED"
	ErrTypeConflict     ErrorType = "CONFLICT"
	ErrTypeInternal     ErrorType = "INTERNAL"
)

// ChatError is the domain error surfaced to both the REST and the socket
// boundary. Handlers map Type to an HTTP status; the gateway returns
// Message inside the event acknowledgment.
type ChatError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error { return e.Cause }

func NewNotFoundError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeNotFound, Operation: operation, Message: msg}
}

func NewBadRequestError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeBadRequest, Operation: operation, Message: msg}
}

func NewAccessDeniedError(operation string) *ChatError {
	return &ChatError{Type: ErrTypeAccessDenied, Operation: operation, Message: "Access denied"}
}

func NewInternalError(operation, msg string, cause error) *ChatError {
	return &ChatError{Type: ErrTypeInternal, Operation: operation, Message: msg, Cause: cause}
}

// TypeOf returns the domain error type, or ErrTypeInternal for anything
// that is not a ChatError.
func TypeOf(err error) ErrorType {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrTypeInternal
}

// PublicMessage returns the message safe to show a caller.
func PublicMessage(err error) string {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return "internal error"
}

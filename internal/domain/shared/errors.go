package shared

import (
	"errors"
	"fmt"
)

// DomainError is a broken business rule. Code is stable and reaches API
// clients; Message is for humans.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string { return e.Message }

// Is compares by code, so errors.Is(err, ErrBidTooLow) holds for a
// re-worded copy made with Withf
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	return errors.As(target, &other) && other.Code == e.Code
}

// Withf returns a copy of e with a formatted message
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	return &DomainError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Generic codes; each context defines its own specific ones
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified concurrently")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// IsDomainError unwraps err to its DomainError, if any
func IsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}

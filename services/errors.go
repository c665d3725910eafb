package services

import (
	"fmt"
)

// DomainError wraps a lower-level failure with the operation that hit it.
// Handlers use the Message for responses and Unwrap for classification.
type DomainError struct {
	Op      string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func domainErr(op, message string, err error) *DomainError {
	return &DomainError{Op: op, Message: message, Err: err}
}

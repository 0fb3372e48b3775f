package client

import (
	"errors"
	"fmt"

	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
)

// Common client errors
var (
	// ErrInvalidConfig indicates the login or client configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrServiceRoleNotSet indicates the service handle was requested without a key
	ErrServiceRoleNotSet = apperrors.ErrServiceRoleNotSet

	// ErrClientClosed indicates a request on a handle after Close
	ErrClientClosed = apperrors.ErrClientClosed
)

// ClientError represents a client-specific error with additional context
type ClientError struct {
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError creates a new ClientError
func NewClientError(op, message string, err error) *ClientError {
	return &ClientError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

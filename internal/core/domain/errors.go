// Package domain defines the core domain models for the pcd device.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a device error with a structured error code.
//
// Codes have the form PCD-<AREA>-<NNNN>; the numeric suffix follows the
// HTTP status family the error maps to (4xxx client side, 5xxx device side).
type DomainError struct {
	Code    string // Error code (e.g., "PCD-ARG-4001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Access errors (raised by Seek / Read / Write)
// ============================================================================

var (
	// ErrInvalidArgument indicates a seek target outside [0, Capacity]
	// or an unrecognized whence.
	ErrInvalidArgument = NewDomainError("PCD-ARG-4001", "invalid argument")

	// ErrEndOfStorage indicates a read with the cursor already at Capacity.
	ErrEndOfStorage = NewDomainError("PCD-DEV-4161", "nothing to read")

	// ErrStorageFull indicates a write with the cursor already at Capacity.
	ErrStorageFull = NewDomainError("PCD-DEV-5071", "no memory left for writing")

	// ErrCopyFault indicates the transfer across the caller boundary failed.
	// The access engine never raises it; adapters do.
	ErrCopyFault = NewDomainError("PCD-DEV-4002", "copy across caller boundary failed")
)

// ============================================================================
// Host errors (raised by the device host and its adapters)
// ============================================================================

var (
	// ErrSessionNotFound indicates the handle does not name an open session.
	ErrSessionNotFound = NewDomainError("PCD-SESS-4040", "session not found")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("PCD-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("PCD-SYS-4290", "too many requests")

	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("PCD-SYS-5000", "internal server error")

	// ErrDeviceClosed indicates the device has been torn down.
	ErrDeviceClosed = NewDomainError("PCD-SYS-5030", "device not registered")
)

// Errno returns the POSIX errno name a character device would return
// for err, or "" when err is nil.
//
// Seek failures map to EINVAL, an empty read and copy faults to EFAULT,
// a full write to ENOMEM and an unknown handle to EBADF.
func Errno(err error) string {
	if err == nil {
		return ""
	}
	switch GetErrorCode(err) {
	case ErrInvalidArgument.Code, ErrBadRequest.Code:
		return "EINVAL"
	case ErrEndOfStorage.Code, ErrCopyFault.Code:
		return "EFAULT"
	case ErrStorageFull.Code:
		return "ENOMEM"
	case ErrSessionNotFound.Code:
		return "EBADF"
	case ErrRateLimited.Code:
		return "EAGAIN"
	case ErrDeviceClosed.Code:
		return "ENODEV"
	default:
		return "EIO"
	}
}

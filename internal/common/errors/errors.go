// Package errors provides standardized error handling for the pool service.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodePoolAdmissionFailed   ErrorCode = "POOL_ADMISSION_FAILED"
	ErrCodePoolRemovalFailed     ErrorCode = "POOL_REMOVAL_FAILED"
	ErrCodeRequestNotFound       ErrorCode = "REQUEST_NOT_FOUND"
	ErrCodeLandlordNotFound      ErrorCode = "LANDLORD_NOT_FOUND"
	ErrCodeMatchCreateFailed     ErrorCode = "MATCH_CREATE_FAILED"
	ErrCodeMatchQueryFailed      ErrorCode = "MATCH_QUERY_FAILED"
	ErrCodeCapacityUpdateFailed  ErrorCode = "CAPACITY_UPDATE_FAILED"
	ErrCodeAnalyticsWriteFailed  ErrorCode = "ANALYTICS_WRITE_FAILED"
	ErrCodeNotificationFailed    ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCacheUnavailable      ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeQueryExecutionFailed  ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout          ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed  ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeInvalidPoolTransition ErrorCode = "INVALID_POOL_TRANSITION"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRequestNotFoundError marks an operation against a request that no longer
// exists. Not retryable: concurrent deletion is an expected outcome.
func NewRequestNotFoundError(requestID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestNotFound,
		Message:   "Rental request not found",
		Details:   fmt.Sprintf("request %s", requestID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionError creates a retryable persistence error.
func NewQueryExecutionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertError creates a retryable insert error.
func NewDatabaseInsertError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError flags a degraded cache. Callers treat this as a
// miss or a no-op; it must never be surfaced as an operation failure.
func NewCacheUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Cache unavailable, degrading to direct reads",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationError creates a non-critical notification failure.
func NewNotificationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Match notification publish failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsRetryable reports whether a StandardError anywhere in the chain is
// retryable.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// CodeOf extracts the ErrorCode from a StandardError anywhere in the chain, or
// empty for other errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

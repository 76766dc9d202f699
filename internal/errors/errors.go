// Package errors provides categorized error types for the wallet scanner services.
package errors

import (
	"fmt"
	"net/http"

	"github.com/wallet-scanner/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryUserInput represents user input errors (4xx)
	CategoryUserInput ErrorCategory = "user_input"
	// CategorySystem represents system errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryUpstream represents upstream data API errors
	CategoryUpstream ErrorCategory = "upstream"
	// CategoryDatabase represents database errors
	CategoryDatabase ErrorCategory = "database"
	// CategoryCache represents cache errors
	CategoryCache ErrorCategory = "cache"
	// CategoryValidation represents validation errors
	CategoryValidation ErrorCategory = "validation"
	// CategoryNotFound represents not found errors
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryRateLimit represents rate limit errors
	CategoryRateLimit ErrorCategory = "rate_limit"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// User Input Errors (4xx)

// NewInvalidWalletError creates an invalid wallet address error
func NewInvalidWalletError(wallet string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_WALLET",
		Message:    fmt.Sprintf("invalid wallet address: %s", wallet),
		Details: map[string]interface{}{
			"wallet": wallet,
		},
	}
}

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_PARAMETER",
		Message:    fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfter int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "rate limit exceeded",
		Details: map[string]interface{}{
			"retryAfter": retryAfter,
		},
	}
}

// System Errors (5xx)

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryDatabase,
		StatusCode: http.StatusInternalServerError,
		Code:       "DATABASE_ERROR",
		Message:    fmt.Sprintf("database error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewCacheError creates a cache error
func NewCacheError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryCache,
		StatusCode: http.StatusInternalServerError,
		Code:       "CACHE_ERROR",
		Message:    fmt.Sprintf("cache error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// Upstream Data API Errors

// NewUpstreamError creates an upstream data API error
func NewUpstreamError(endpoint string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusBadGateway,
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("upstream API error: %s", endpoint),
		Cause:      cause,
		Details: map[string]interface{}{
			"endpoint": endpoint,
		},
	}
}

// NewUpstreamTimeoutError creates an upstream timeout error
func NewUpstreamTimeoutError(endpoint string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusGatewayTimeout,
		Code:       "UPSTREAM_TIMEOUT",
		Message:    fmt.Sprintf("upstream API timeout: %s", endpoint),
		Details: map[string]interface{}{
			"endpoint": endpoint,
		},
	}
}

// NewUpstreamRateLimitError creates an upstream rate limit error
func NewUpstreamRateLimitError(endpoint string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusTooManyRequests,
		Code:       "UPSTREAM_RATE_LIMIT",
		Message:    fmt.Sprintf("upstream API rate limit exceeded: %s", endpoint),
		Details: map[string]interface{}{
			"endpoint": endpoint,
		},
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	// If already categorized, return as-is
	if catErr, ok := err.(*CategorizedError); ok {
		return catErr
	}

	// If it's a ServiceError, convert it
	if svcErr, ok := err.(*types.ServiceError); ok {
		return categorizeServiceError(svcErr)
	}

	// Default to internal error
	return NewInternalError("unexpected error", err)
}

// categorizeServiceError categorizes a ServiceError
func categorizeServiceError(err *types.ServiceError) *CategorizedError {
	switch err.Code {
	case "INVALID_WALLET", "INVALID_WALLET_FORMAT":
		return &CategorizedError{
			Category:   CategoryUserInput,
			StatusCode: http.StatusBadRequest,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	case "WALLET_NOT_FOUND", "STATS_NOT_FOUND", "RUN_NOT_FOUND":
		return &CategorizedError{
			Category:   CategoryNotFound,
			StatusCode: http.StatusNotFound,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	case "RATE_LIMIT_EXCEEDED":
		return &CategorizedError{
			Category:   CategoryRateLimit,
			StatusCode: http.StatusTooManyRequests,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	default:
		return &CategorizedError{
			Category:   CategorySystem,
			StatusCode: http.StatusInternalServerError,
			Code:       err.Code,
			Message:    err.Message,
			Details:    err.Details,
		}
	}
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsRetryable determines if an error is retryable
func IsRetryable(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	switch catErr.Category {
	case CategoryUpstream, CategoryDatabase, CategoryCache:
		return true
	case CategorySystem:
		return catErr.StatusCode == http.StatusServiceUnavailable ||
			catErr.StatusCode == http.StatusGatewayTimeout
	default:
		return false
	}
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}

// IsSystemError determines if an error is a system error (5xx)
func IsSystemError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 500
}

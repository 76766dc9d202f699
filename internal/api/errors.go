package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/wallet-scanner/internal/errors"
	"github.com/wallet-scanner/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// mapServiceError maps service errors to HTTP status codes.
func mapServiceError(err error) (int, string, string) {
	var catErr *apperrors.CategorizedError
	if errors.As(err, &catErr) {
		return catErr.StatusCode, catErr.Code, catErr.Message
	}

	var serviceErr *types.ServiceError
	if errors.As(err, &serviceErr) {
		switch serviceErr.Code {
		case "INVALID_WALLET", "INVALID_WALLET_FORMAT", "INVALID_PARAMETER":
			return http.StatusBadRequest, ErrCodeInvalidInput, serviceErr.Message
		case "WALLET_NOT_FOUND", "STATS_NOT_FOUND", "RUN_NOT_FOUND":
			return http.StatusNotFound, ErrCodeNotFound, serviceErr.Message
		case "RATE_LIMIT_EXCEEDED":
			return http.StatusTooManyRequests, ErrCodeRateLimitExceeded, serviceErr.Message
		default:
			return http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred"
		}
	}

	return http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred"
}

package dto

import (
	"net/http"

	"github.com/erp/salesledger/internal/domain/shared"
)

// Codes produced by the HTTP layer itself. Domain codes from
// shared.DomainError are passed through unchanged.
const (
	CodeInternal         = "INTERNAL_ERROR"
	CodeValidation       = "VALIDATION_ERROR"
	CodeBadRequest       = "BAD_REQUEST"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	CodeRateLimited      = "RATE_LIMITED"
	CodeDuplicateRequest = "DUPLICATE_REQUEST"
	CodeCanceled         = "CANCELED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	CodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	CodeValidation:             http.StatusBadRequest,
	CodeBadRequest:             http.StatusBadRequest,
	shared.CodeInvalidInput:    http.StatusBadRequest,
	shared.CodeInvalidQuantity: http.StatusBadRequest,
	shared.CodeInvalidAmount:   http.StatusBadRequest,

	// Auth errors
	shared.CodeUnauthorized: http.StatusUnauthorized,
	CodeTokenExpired:        http.StatusUnauthorized,
	shared.CodeForbidden:    http.StatusForbidden,

	// Resource errors
	shared.CodeNotFound:             http.StatusNotFound,
	shared.CodeConcurrencyConflict:  http.StatusConflict,
	shared.CodeOptimisticLockFailed: http.StatusConflict,
	CodeDuplicateRequest:            http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	shared.CodeInsufficientStock: http.StatusUnprocessableEntity,
	shared.CodeInvalidState:      http.StatusUnprocessableEntity,

	CodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	CodeRateLimited:     http.StatusTooManyRequests,
	CodeCanceled:        http.StatusRequestTimeout,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

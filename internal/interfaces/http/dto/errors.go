package dto

import (
	"net/http"

	"github.com/stockflow/backend/internal/domain/shared"
)

// Domain error codes, shared with the application layer
const (
	ErrCodeValidation         = shared.CodeValidation
	ErrCodeForbidden          = shared.CodeForbidden
	ErrCodeNotFound           = shared.CodeNotFound
	ErrCodeInsufficientStock  = shared.CodeInsufficientStock
	ErrCodeInternal           = shared.CodeInternal
	ErrCodeAlreadyExists      = shared.CodeAlreadyExists
	ErrCodeUnauthorized       = shared.CodeUnauthorized
	ErrCodeInvalidCredentials = shared.CodeInvalidCredentials
)

// Transport-only error codes
const (
	// ErrCodeBadRequest is used for malformed requests (bad JSON, bad path id)
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the bearer token cannot be verified
	ErrCodeTokenInvalid = "INVALID_TOKEN"
	// ErrCodeRateLimited is used when a client exceeds its request budget
	ErrCodeRateLimited = "RATE_LIMIT_EXCEEDED"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeRouteNotFound is used for unknown routes
	ErrCodeRouteNotFound = "ROUTE_NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// 400 Bad Request
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	// 401 Unauthorized
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,

	ErrCodeForbidden:     http.StatusForbidden,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeRouteNotFound: http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,

	// 422 Unprocessable Entity
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

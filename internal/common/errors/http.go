// internal/common/errors/http.go
package errors

import "net/http"

// HTTPStatus maps an error to the response status the boundary layer should use.
// Constraint violations surfaced mid-transaction arrive here as conflict codes,
// never as internal errors.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeApplicationNotFound, ErrCodeUserNotFound:
		return http.StatusNotFound
	case ErrCodeDecisionAlreadyExists, ErrCodeDuplicateNationalID, ErrCodeDuplicateUsername:
		return http.StatusConflict
	case ErrCodeInvalidDecisionValue, ErrCodeInvalidDateFilter, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeInvalidCredentials, ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

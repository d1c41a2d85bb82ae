// internal/api/respond.go

// Package api is the HTTP boundary: routing, auth middleware and handlers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "mortgage-api/internal/common/errors"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// WriteJSON serializes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps an error to its HTTP status and structured body. Internal
// detail never leaks for unexpected errors.
func WriteError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Code != apperrors.ErrCodeInternal {
		WriteJSON(w, status, errorResponse{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	WriteJSON(w, status, errorResponse{
		Code:    string(apperrors.ErrCodeInternal),
		Message: "internal error",
	})
}

// DecodeJSON reads the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.NewValidationFailed("malformed request body: " + err.Error())
	}
	return nil
}

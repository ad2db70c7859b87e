package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeValidation         = "validation_error"
	ErrCodeMalformedToken     = "malformed_token"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotFound           = "not_found"
	ErrCodeUsernameTaken      = "username_taken"
	ErrCodeEmailTaken         = "email_taken"
	ErrCodeInternal           = "internal_server_error"
	ErrCodeUnavailable        = "service_unavailable"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RespondErrorWithCode writes a JSON error body and logs it. Client errors
// are logged at warn level, everything else at error level.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	details any,
	devErrs ...error,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errBody := ErrorResponse{
		Code:    errorCode,
		Message: publicMessage,
	}
	if details != nil {
		errBody.Details = details
	}
	_ = json.NewEncoder(w).Encode(errBody)

	entry := Logger.WithFields(logrus.Fields{
		"status": status,
		"code":   errorCode,
	})
	if len(devErrs) > 0 && devErrs[0] != nil {
		entry = entry.WithError(devErrs[0])
	}
	if status < http.StatusInternalServerError {
		entry.Warn(publicMessage)
		return
	}
	entry.Error(publicMessage)
}

// RespondWithJSON for successful cases
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

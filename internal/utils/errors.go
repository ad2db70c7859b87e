package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors returned by the service layer.
var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrUsernameTaken       = errors.New("username_taken")
	ErrEmailTaken          = errors.New("email_taken")
	ErrMalformedToken      = errors.New("malformed_token")
	ErrInvalidSignature    = errors.New("invalid_signature")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrUserNotFound        = errors.New("user_not_found")
	ErrRegistryUnavailable = errors.New("registry_unavailable")
	ErrPasswordTooLong     = errors.New("password_too_long")
)

// AppError carries an HTTP status and a public message from a service error
// to the controller that renders it.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ToAppError classifies err against the domain sentinels. Anything it does
// not recognise, registry failures included, becomes a 500.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrPasswordTooLong):
		return &AppError{http.StatusBadRequest, ErrCodeValidation, "Password must be at most 72 bytes", err}
	case errors.Is(err, ErrMalformedToken):
		return &AppError{http.StatusBadRequest, ErrCodeMalformedToken, "Malformed authorization token", err}
	case errors.Is(err, ErrInvalidCredentials):
		return &AppError{http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid username or password", err}
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidSignature):
		return &AppError{http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid or expired token", err}
	case errors.Is(err, ErrForbidden):
		return &AppError{http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions", err}
	case errors.Is(err, ErrUserNotFound):
		return &AppError{http.StatusNotFound, ErrCodeNotFound, "User not found", err}
	case errors.Is(err, ErrUsernameTaken):
		return &AppError{http.StatusConflict, ErrCodeUsernameTaken, "Username already exists", err}
	case errors.Is(err, ErrEmailTaken):
		return &AppError{http.StatusConflict, ErrCodeEmailTaken, "Email already exists", err}
	default:
		return &AppError{http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", err}
	}
}

// HandleAppError centralizes responding to service errors.
func HandleAppError(w http.ResponseWriter, err error) {
	appErr := ToAppError(err)
	RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
}

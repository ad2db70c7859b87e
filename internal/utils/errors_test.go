package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestToAppErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ErrMalformedToken, http.StatusBadRequest, ErrCodeMalformedToken},
		{ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeInvalidCredentials},
		{ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnauthorized},
		{ErrInvalidSignature, http.StatusUnauthorized, ErrCodeUnauthorized},
		{ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
		{ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound},
		{ErrUsernameTaken, http.StatusConflict, ErrCodeUsernameTaken},
		{ErrEmailTaken, http.StatusConflict, ErrCodeEmailTaken},
		{ErrRegistryUnavailable, http.StatusInternalServerError, ErrCodeInternal},
		{ErrPasswordTooLong, http.StatusBadRequest, ErrCodeValidation},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
		// Wrapped sentinels classify the same way.
		{fmt.Errorf("%w: token revoked", ErrUnauthorized), http.StatusUnauthorized, ErrCodeUnauthorized},
		{fmt.Errorf("hash password: %w", ErrPasswordTooLong), http.StatusBadRequest, ErrCodeValidation},
	}

	for _, c := range cases {
		appErr := ToAppError(c.err)
		if appErr.StatusCode != c.status || appErr.Code != c.code {
			t.Errorf("ToAppError(%v) = %d/%s, want %d/%s", c.err, appErr.StatusCode, appErr.Code, c.status, c.code)
		}
		if !errors.Is(appErr, c.err) {
			t.Errorf("ToAppError(%v) does not unwrap to the original error", c.err)
		}
	}
}

func TestToAppErrorPassesThroughAppError(t *testing.T) {
	orig := &AppError{StatusCode: http.StatusTeapot, Code: "teapot", Message: "short and stout"}
	if got := ToAppError(fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Fatalf("expected the wrapped AppError back, got %+v", got)
	}
}

func TestHandleAppErrorWritesJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleAppError(rec, ErrEmailTaken)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Code != ErrCodeEmailTaken || body.Message != "Email already exists" {
		t.Fatalf("unexpected body %+v", body)
	}
}

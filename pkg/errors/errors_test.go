package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("change stream closed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, wrapped.Code)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "booking not found",
			},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("connection refused"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	unwrapped := errors.Unwrap(appErr)
	if unwrapped != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Forbidden("not the booking owner")
	if got := AsAppError(appErr); got != appErr {
		t.Errorf("AsAppError should return the same *AppError")
	}

	plain := errors.New("plain error")
	converted := AsAppError(plain)
	if converted.Code != CodeInternal {
		t.Errorf("expected plain error to convert to %s, got %s", CodeInternal, converted.Code)
	}
	if !errors.Is(converted, plain) {
		t.Errorf("converted error should wrap the original")
	}
}

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"forbidden", Forbidden("denied"), CodeForbidden, http.StatusForbidden},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("already started"), CodeConflict, http.StatusConflict},
		{"validation", Validation("invalid", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("store"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode())
			}
		})
	}
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"
)

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"duplicate email", ErrDuplicateEmail, http.StatusConflict},
		{"locked", LockedError(15), http.StatusLocked},
		{"deactivated", ErrAccountDeactivated, http.StatusForbidden},
		{"invalid credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid token", ErrInvalidToken, http.StatusBadRequest},
		{"invalid refresh", ErrInvalidRefreshToken, http.StatusBadRequest},
		{"validation", WithDetails(ErrValidationFailed, "a"), http.StatusBadRequest},
		{"user not found", ErrUserNotFound, http.StatusNotFound},
		{"role assignment", ErrRoleAssignment, http.StatusInternalServerError},
		{"wrapped internal", fmt.Errorf("ctx: %w", WrapError(ErrInternal, errors.New("db down"))), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("ToHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := WithDetails(ErrValidationFailed, "Passwords must be at least 6 characters.")
	if !errors.Is(err, ErrValidationFailed) {
		t.Error("expected derived error to match its sentinel")
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Error("expected no match across codes")
	}

	wrapped := fmt.Errorf("register: %w", LockedError(30))
	if !errors.Is(wrapped, ErrAccountLocked) {
		t.Error("expected wrapped lockout error to match ErrAccountLocked")
	}
}

func TestGetErrorDetails(t *testing.T) {
	if got := GetErrorDetails(nil); got != nil {
		t.Errorf("expected nil details, got %v", got)
	}

	got := GetErrorDetails(WithDetails(ErrValidationFailed, "first", "second"))
	if !reflect.DeepEqual(got, []string{"first", "second"}) {
		t.Errorf("unexpected details %v", got)
	}

	got = GetErrorDetails(ErrInvalidCredentials)
	if !reflect.DeepEqual(got, []string{"Invalid credentials."}) {
		t.Errorf("unexpected details %v", got)
	}

	got = GetErrorDetails(errors.New("pq: connection refused"))
	if !reflect.DeepEqual(got, []string{ErrInternal.Message}) {
		t.Errorf("internal cause leaked: %v", got)
	}
}

func TestLockedErrorMessage(t *testing.T) {
	want := "Account locked due to multiple failed login attempts. Please try again in 15 minutes."
	if got := LockedError(15).Message; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if ErrAccountLocked.Message != want {
		t.Errorf("sentinel message drifted: %q", ErrAccountLocked.Message)
	}
}

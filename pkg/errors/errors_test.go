package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNewAndWrap(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad %s", "value")
	if got := err.Error(); got != "INVALID_INPUT: bad value" {
		t.Errorf("Error() = %q", got)
	}

	cause := errors.New("open course.toml: no such file")
	wrapped := Wrap(ErrCodeFileNotFound, cause, "cannot load")
	if !errors.Is(wrapped, cause) || errors.Unwrap(wrapped) != cause {
		t.Error("cause not reachable through Unwrap")
	}
	if got := wrapped.Error(); got != "FILE_NOT_FOUND: cannot load: open course.toml: no such file" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsAndGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching", New(ErrCodeReadOnly, "x"), ErrCodeReadOnly, true},
		{"different", New(ErrCodeReadOnly, "x"), ErrCodeConflict, false},
		{"outer wins", Wrap(ErrCodeInternal, New(ErrCodeInvalidInput, "in"), "out"), ErrCodeInternal, true},
		{"plain error", errors.New("plain"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is = %v, want %v", got, tt.want)
			}
		})
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode of a plain error should be empty")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeInvalidInput, "name cannot be empty"), "name cannot be empty"},
		{"with cause", Wrap(ErrCodeInvalidDocument, errors.New("line 3"), "bad document"), "bad document: line 3"},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidViewport, http.StatusBadRequest},
		{ErrCodeNodeNotFound, http.StatusNotFound},
		{ErrCodeReadOnly, http.StatusForbidden},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatus(New(tt.code, "x")); got != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
	if HTTPStatus(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("plain errors should map to 500")
	}
}

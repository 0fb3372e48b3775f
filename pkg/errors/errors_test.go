package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name          string
		field         string
		message       string
		value         interface{}
		expectedError string
	}{
		{
			name:          "with field",
			field:         "table_name",
			message:       "must have value",
			value:         "",
			expectedError: "validation error: table_name: must have value",
		},
		{
			name:          "without field",
			field:         "",
			message:       "invalid input",
			value:         nil,
			expectedError: "validation error: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error %q, got %q", tt.expectedError, err.Error())
			}
			if err.Code() != CodeValidation {
				t.Errorf("Expected code %q, got %q", CodeValidation, err.Code())
			}
			if !IsValidation(fmt.Errorf("wrapped: %w", err)) {
				t.Error("Expected IsValidation to see through wrapping")
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "noop") != nil {
		t.Fatal("Expected nil for nil error")
	}

	base := NewValidationError("match", "must be object", 1)
	wrapped := Wrap(base, "select failed")
	if GetErrorCode(wrapped) != CodeValidation {
		t.Errorf("Expected code to be preserved, got %s", GetErrorCode(wrapped))
	}
	if !strings.HasPrefix(wrapped.Error(), "select failed: ") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}

	plain := Wrapf(errors.New("boom"), "insert into %s", "users")
	if GetErrorCode(plain) != CodeInternal {
		t.Errorf("Expected internal code, got %s", GetErrorCode(plain))
	}
	if errors.Unwrap(plain).Error() != "boom" {
		t.Errorf("Expected cause boom, got %v", errors.Unwrap(plain))
	}
}

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantMessage  string
		wantPlatform string
		wantHint     string
		wantCode     string
		sentinel     error
	}{
		{
			name:         "postgrest",
			status:       http.StatusNotAcceptable,
			body:         `{"code":"PGRST116","details":"The result contains 0 rows","hint":null,"message":"JSON object requested, multiple (or no) rows returned"}`,
			wantMessage:  "JSON object requested, multiple (or no) rows returned",
			wantPlatform: "PGRST116",
			wantCode:     CodeInvalidArgument,
			sentinel:     ErrInvalidInput,
		},
		{
			name:         "gotrue",
			status:       http.StatusBadRequest,
			body:         `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`,
			wantMessage:  "Invalid login credentials",
			wantPlatform: "invalid_credentials",
			wantCode:     CodeInvalidArgument,
			sentinel:     ErrInvalidInput,
		},
		{
			name:         "gotrue legacy",
			status:       http.StatusUnauthorized,
			body:         `{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`,
			wantMessage:  "Invalid Refresh Token",
			wantPlatform: "invalid_grant",
			wantCode:     CodeUnauthenticated,
			sentinel:     ErrUnauthorized,
		},
		{
			name:         "storage",
			status:       http.StatusNotFound,
			body:         `{"statusCode":"404","error":"not_found","message":"Object not found"}`,
			wantMessage:  "Object not found",
			wantPlatform: "not_found",
			wantCode:     CodeNotFound,
			sentinel:     ErrNotFound,
		},
		{
			name:        "plain text",
			status:      http.StatusBadGateway,
			body:        "upstream unavailable",
			wantMessage: "upstream unavailable",
			wantCode:    CodeUnavailable,
			sentinel:    ErrServiceUnavailable,
		},
		{
			name:        "empty body",
			status:      http.StatusInternalServerError,
			body:        "",
			wantMessage: "Internal Server Error",
			wantCode:    CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromResponse("rest", tt.status, []byte(tt.body))
			if err.Message() != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, err.Message())
			}
			if err.PlatformCode != tt.wantPlatform {
				t.Errorf("Expected platform code %q, got %q", tt.wantPlatform, err.PlatformCode)
			}
			if err.Hint != tt.wantHint {
				t.Errorf("Expected hint %q, got %q", tt.wantHint, err.Hint)
			}
			if err.Code() != tt.wantCode {
				t.Errorf("Expected code %q, got %q", tt.wantCode, err.Code())
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("Expected errors.Is(%v)", tt.sentinel)
			}
			if apiErr, ok := IsAPIError(fmt.Errorf("ctx: %w", err)); !ok || apiErr.Status != tt.status {
				t.Errorf("Expected IsAPIError to unwrap status %d", tt.status)
			}
		})
	}
}

func TestAPIErrorString(t *testing.T) {
	err := FromResponse("rest", http.StatusBadRequest, []byte(`{"message":"Failed to insert row into users"}`))
	want := "rest: Failed to insert row into users (status 400)"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	err.PlatformCode = "23505"
	if !strings.Contains(err.Error(), "code 23505") {
		t.Errorf("Expected platform code in %q", err.Error())
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"closed client", fmt.Errorf("do: %w", ErrClientClosed), false},
		{"timeout", NewTimeoutError("select", nil), true},
		{"service", NewServiceError("storage", "", 503, nil), true},
		{"5xx", FromResponse("rest", 500, nil), true},
		{"4xx", FromResponse("rest", 400, nil), false},
		{"validation", NewValidationError("x", "bad", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Errorf("ShouldRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorCodeSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, CodeOK},
		{ErrSessionMissing, CodeFailedPrecondition},
		{ErrServiceRoleNotSet, CodeFailedPrecondition},
		{ErrClientClosed, CodeFailedPrecondition},
		{fmt.Errorf("x: %w", ErrNotFound), CodeNotFound},
		{errors.New("other"), CodeInternal},
	}
	for _, tt := range tests {
		if got := GetErrorCode(tt.err); got != tt.want {
			t.Errorf("GetErrorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestStatusSentinels(t *testing.T) {
	if !IsUnauthorized(FromResponse("auth", http.StatusUnauthorized, nil)) {
		t.Error("401 should be unauthorized")
	}
	if !IsNotFound(FromResponse("storage", http.StatusNotFound, nil)) {
		t.Error("404 should be not found")
	}
	if GetErrorCode(FromResponse("storage", http.StatusNotFound, nil)) != CodeNotFound {
		t.Error("404 should carry the not found code")
	}
	if !IsTimeout(FromResponse("rest", http.StatusGatewayTimeout, nil)) {
		t.Error("504 should be a timeout")
	}
}

package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from one of the platform services.
// It understands the PostgREST {code,message,details,hint}, GoTrue
// {error_code,msg,error_description} and Storage {statusCode,error,message}
// body shapes.
type APIError struct {
	*BaseError
	Service      string
	Status       int
	PlatformCode string
	Details      string
	Hint         string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder
	if e.Service != "" {
		b.WriteString(e.Service)
		b.WriteString(": ")
	}
	b.WriteString(e.message)
	fmt.Fprintf(&b, " (status %d", e.Status)
	if e.PlatformCode != "" {
		fmt.Fprintf(&b, ", code %s", e.PlatformCode)
	}
	b.WriteString(")")
	return b.String()
}

// FromResponse decodes an error body returned by the platform.
func FromResponse(service string, status int, body []byte) *APIError {
	e := &APIError{
		BaseError: &BaseError{
			code:  HTTPStatusToCode(status),
			cause: sentinelForStatus(status),
		},
		Service: service,
		Status:  status,
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		e.message = strings.TrimSpace(string(body))
		if e.message == "" {
			e.message = http.StatusText(status)
		}
		return e
	}

	e.message = firstString(fields, "message", "msg", "error_description", "error")
	if e.message == "" {
		e.message = http.StatusText(status)
	}
	e.PlatformCode = firstString(fields, "error_code", "code", "error")
	e.Details = firstString(fields, "details")
	e.Hint = firstString(fields, "hint")
	return e
}

// firstString returns the first non-empty value among keys, stringified.
func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return fmt.Sprintf("%d", int64(t))
		default:
			return fmt.Sprint(t)
		}
	}
	return ""
}

func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrTimeout
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway:
		return ErrServiceUnavailable
	case status >= 400 && status < 500:
		return ErrInvalidInput
	default:
		return nil
	}
}

// HTTPStatusToCode converts an HTTP status code to an error code.
func HTTPStatusToCode(status int) string {
	switch status {
	case http.StatusOK:
		return CodeOK
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeInvalidArgument
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodePermissionDenied
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeAlreadyExists
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return CodeDeadlineExceeded
	case http.StatusTooManyRequests:
		return CodeResourceExhausted
	case http.StatusNotImplemented:
		return CodeUnimplemented
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return CodeUnavailable
	case http.StatusInternalServerError:
		return CodeInternal
	default:
		if status >= 400 && status < 500 {
			return CodeInvalidArgument
		}
		return CodeInternal
	}
}

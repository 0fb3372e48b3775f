package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
)

// Service path prefixes on the platform.
const (
	AuthPath    = "/auth/v1"
	RestPath    = "/rest/v1"
	StoragePath = "/storage/v1"
)

// Request is a single call against one of the platform services.
type Request struct {
	Method string
	Path   string // Relative to the project URL, e.g. /rest/v1/users
	Query  url.Values
	Header http.Header

	// JSON is marshalled as the body when set. Body and ContentType are used
	// otherwise, e.g. for multipart uploads.
	JSON        any
	Body        []byte
	ContentType string

	// Idempotent marks a POST that is safe to resend, such as a storage
	// listing. GET, HEAD, PUT and DELETE are always treated as idempotent.
	Idempotent bool
}

// Response is a 2xx reply. Non-2xx replies are returned as *errors.APIError.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// JSON decodes the body into a generic value suitable for validation.
func (r *Response) JSON() (any, error) {
	var v any
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Handle is one authenticated connection to the project, either with the
// anon key or with the service-role key.
type Handle struct {
	baseURL string
	apiKey  string
	bearer  func() string
	service bool

	httpClient *http.Client
	cfg        ClientConfig
	logger     *zap.Logger
	closed     atomic.Bool
}

func newHandle(baseURL, apiKey string, bearer func() string, service bool, hc *http.Client, cfg ClientConfig, logger *zap.Logger) *Handle {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if bearer == nil {
		bearer = func() string { return apiKey }
	}
	return &Handle{
		baseURL:    baseURL,
		apiKey:     apiKey,
		bearer:     bearer,
		service:    service,
		httpClient: hc,
		cfg:        cfg,
		logger:     logger,
	}
}

// URL returns the project URL the handle talks to.
func (h *Handle) URL() string { return h.baseURL }

// IsServiceRole reports whether the handle carries the service-role key.
func (h *Handle) IsServiceRole() bool { return h.service }

// Close marks the handle closed. Further calls return ErrClientClosed.
func (h *Handle) Close() {
	if h.closed.CompareAndSwap(false, true) {
		h.httpClient.CloseIdleConnections()
	}
}

// Closed reports whether Close has been called.
func (h *Handle) Closed() bool { return h.closed.Load() }

// addAuthHeaders adds the platform authentication headers to the request
func (h *Handle) addAuthHeaders(req *http.Request) {
	req.Header.Set("apikey", h.apiKey)
	req.Header.Set("Authorization", "Bearer "+h.bearer())
	if h.cfg.UserAgent != "" {
		req.Header.Set("X-Client-Info", h.cfg.UserAgent)
	}
}

// Do sends the request, retrying transport errors and 5xx replies.
func (h *Handle) Do(ctx context.Context, r Request) (*Response, error) {
	if h.Closed() {
		return nil, ErrClientClosed
	}

	body, contentType, err := r.payload()
	if err != nil {
		return nil, NewClientError("do", "failed to marshal request", err)
	}

	service := serviceName(r.Path)
	attempts := h.cfg.RetryAttempts
	if attempts < 1 || !r.idempotent() {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if h.Closed() {
			return nil, ErrClientClosed
		}

		resp, err := h.once(ctx, r, body, contentType, service)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !apperrors.ShouldRetry(err) || attempt == attempts {
			break
		}
		h.logger.Debug("Retrying platform request",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, apperrors.NewTimeoutError(service+" request", ctx.Err())
		case <-time.After(h.cfg.RetryDelay):
		}
	}
	return nil, lastErr
}

func (h *Handle) once(ctx context.Context, r Request, body []byte, contentType, service string) (*Response, error) {
	u := h.baseURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, u, reader)
	if err != nil {
		return nil, NewClientError("do", "failed to create request", err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	h.addAuthHeaders(req)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError(service+" request", err)
		}
		return nil, apperrors.NewServiceError(service, "request failed", 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewServiceError(service, "failed to read response", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.FromResponse(service, resp.StatusCode, data)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (r Request) payload() ([]byte, string, error) {
	if r.JSON != nil {
		b, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", err
		}
		return b, "application/json", nil
	}
	return r.Body, r.ContentType, nil
}

// idempotent reports whether r may be sent again after a failure whose
// outcome on the server is unknown.
func (r Request) idempotent() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return r.Idempotent
}

func serviceName(path string) string {
	switch {
	case strings.HasPrefix(path, AuthPath):
		return "auth"
	case strings.HasPrefix(path, RestPath):
		return "database"
	case strings.HasPrefix(path, StoragePath):
		return "storage"
	default:
		return "platform"
	}
}

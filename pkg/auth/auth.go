// Package auth signs users up and in against the platform's auth service and
// keeps the resulting session on the shared client.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DeBrosOfficial/supasaas/pkg/client"
	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
	"github.com/DeBrosOfficial/supasaas/pkg/logging"
	"github.com/DeBrosOfficial/supasaas/pkg/validate"
)

// Response is what sign up and sign in return. Session is nil when the
// project requires email confirmation before a session is issued.
type Response struct {
	User    map[string]any
	Session *client.Session
}

// Auth is the user-authentication facade. It always uses the default handle.
type Auth struct {
	client   *client.Client
	validate validate.Func
	log      logging.Func
}

// Option configures an Auth.
type Option func(*Auth)

// WithValidator replaces the response validator.
func WithValidator(v validate.Func) Option {
	return func(a *Auth) {
		if v != nil {
			a.validate = v
		}
	}
}

// WithLogger replaces the log function.
func WithLogger(l logging.Func) Option {
	return func(a *Auth) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAuth builds the facade over c.
func NewAuth(c *client.Client, opts ...Option) *Auth {
	a := &Auth{
		client:   c,
		validate: validate.Default,
		log:      logging.DefaultFunc(logging.ComponentAuth),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SignUp registers a user. Rejected credentials are logged and returned
// wrapping ErrInvalidCredentials.
func (a *Auth) SignUp(ctx context.Context, email, password string) (*Response, error) {
	body, err := a.do(ctx, http.MethodPost, "/signup", nil, map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		if cerr := credentialsError(err); cerr != nil {
			a.log(zapcore.ErrorLevel, "signup", zap.String("email", email), zap.Error(cerr))
			return nil, cerr
		}
		return nil, err
	}
	if err := a.validate(body, validate.Object); err != nil {
		return nil, err
	}

	m, _ := body.(map[string]any)
	resp := parseAuthResponse(m)
	if resp.Session != nil {
		a.client.SetSession(resp.Session)
	}
	return resp, nil
}

// SignIn exchanges email and password for a session and stores it on the
// client. Rejected credentials are logged and returned with a nil response.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*Response, error) {
	body, err := a.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"password"}}, map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		if cerr := credentialsError(err); cerr != nil {
			a.log(zapcore.ErrorLevel, "login", zap.String("email", email), zap.Error(cerr))
			return nil, cerr
		}
		return nil, err
	}
	if err := a.validate(body, validate.Object); err != nil {
		return nil, err
	}

	m, _ := body.(map[string]any)
	resp := parseAuthResponse(m)
	if resp.Session == nil {
		return nil, apperrors.Newf("sign in returned no session for %s", email)
	}
	a.client.SetSession(resp.Session)
	return resp, nil
}

// SignOut revokes the session on the platform and clears it locally.
// Platform errors are logged at warn level and otherwise ignored.
func (a *Auth) SignOut(ctx context.Context) {
	defer a.client.SetSession(nil)
	if a.client.Session() == nil {
		return
	}
	if _, err := a.do(ctx, http.MethodPost, "/logout", nil, nil); err != nil {
		a.log(zapcore.WarnLevel, "logout", zap.Error(err))
	}
}

// ResetPassword sends a recovery email that links to
// <domain>/reset-password.html.
func (a *Auth) ResetPassword(ctx context.Context, email, domain string) error {
	redirect := strings.TrimSuffix(domain, "/") + "/reset-password.html"
	_, err := a.do(ctx, http.MethodPost, "/recover", url.Values{"redirect_to": {redirect}}, map[string]any{
		"email": email,
	})
	return err
}

// UpdateUser applies updates (email, password, data) to the signed-in user.
func (a *Auth) UpdateUser(ctx context.Context, updates map[string]any) (map[string]any, error) {
	user, err := a.userRequest(ctx, http.MethodPut, updates)
	if err != nil {
		if sessionErr(err) {
			a.log(zapcore.ErrorLevel, "update user", zap.Any("updates", updates), zap.Error(err))
		}
		return nil, err
	}
	return user, nil
}

// GetUser returns the signed-in user as the platform sees it.
func (a *Auth) GetUser(ctx context.Context) (map[string]any, error) {
	return a.userRequest(ctx, http.MethodGet, nil)
}

// RefreshSession trades the stored refresh token for a new session.
func (a *Auth) RefreshSession(ctx context.Context) (*client.Session, error) {
	current := a.client.Session()
	if current == nil || current.RefreshToken == "" {
		return nil, apperrors.ErrSessionMissing
	}

	body, err := a.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}}, map[string]any{
		"refresh_token": current.RefreshToken,
	})
	if err != nil {
		if cerr := credentialsError(err); cerr != nil {
			a.log(zapcore.ErrorLevel, "refresh session", zap.Error(cerr))
			return nil, fmt.Errorf("%w: %w", apperrors.ErrSessionMissing, cerr)
		}
		return nil, err
	}
	if err := a.validate(body, validate.Object); err != nil {
		return nil, err
	}

	m, _ := body.(map[string]any)
	resp := parseAuthResponse(m)
	if resp.Session == nil {
		return nil, apperrors.ErrSessionMissing
	}
	a.client.SetSession(resp.Session)
	return resp.Session, nil
}

// Session returns the stored session, or nil.
func (a *Auth) Session() *client.Session {
	return a.client.Session()
}

func (a *Auth) userRequest(ctx context.Context, method string, payload map[string]any) (map[string]any, error) {
	if a.client.Session() == nil {
		return nil, apperrors.ErrSessionMissing
	}

	body, err := a.do(ctx, method, "/user", nil, payload)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrSessionMissing, err)
		}
		return nil, err
	}
	if err := a.validate(body, validate.Object); err != nil {
		return nil, err
	}
	user, _ := body.(map[string]any)
	return user, nil
}

func (a *Auth) do(ctx context.Context, method, path string, query url.Values, payload map[string]any) (any, error) {
	h, err := a.client.SelectClient(false)
	if err != nil {
		return nil, err
	}
	req := client.Request{Method: method, Path: client.AuthPath + path, Query: query}
	if payload != nil {
		req.JSON = payload
	}
	resp, err := h.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.JSON()
}

// credentialsError maps 400/401/422 replies from the auth service onto
// ErrInvalidCredentials. It returns nil for any other error.
func credentialsError(err error) error {
	apiErr, ok := apperrors.IsAPIError(err)
	if !ok {
		return nil
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, apiErr)
	}
	return nil
}

func sessionErr(err error) bool {
	return apperrors.Is(err, apperrors.ErrSessionMissing)
}

// parseAuthResponse accepts both the session shape and the bare user shape
// the signup endpoint returns when confirmation is pending.
func parseAuthResponse(body map[string]any) *Response {
	resp := &Response{}
	token, _ := body["access_token"].(string)
	if token == "" {
		resp.User = body
		return resp
	}

	s := &client.Session{
		AccessToken:  token,
		TokenType:    stringField(body, "token_type"),
		RefreshToken: stringField(body, "refresh_token"),
		ExpiresIn:    intField(body, "expires_in"),
		ExpiresAt:    intField(body, "expires_at"),
	}
	if u, ok := body["user"].(map[string]any); ok {
		s.User = u
		resp.User = u
	}
	resp.Session = s
	return resp
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case interface{ Int64() (int64, error) }:
		n, _ := v.Int64()
		return n
	case float64:
		return int64(v)
	default:
		return 0
	}
}

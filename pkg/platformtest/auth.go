package platformtest

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const signingSecret = "platformtest-secret"

type user struct {
	ID       string
	Email    string
	Password string
	Metadata map[string]any
}

func (u *user) object() map[string]any {
	meta := u.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return map[string]any{
		"id":            u.ID,
		"aud":           "authenticated",
		"role":          "authenticated",
		"email":         u.Email,
		"user_metadata": meta,
	}
}

// AddUser registers a confirmed user and returns its id.
func (s *Server) AddUser(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{ID: uuid.NewString(), Email: email, Password: password}
	s.users[email] = u
	return u.ID
}

// User returns the user object for email, or nil.
func (s *Server) User(email string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		return u.object()
	}
	return nil
}

// RecoveryRedirect returns the redirect_to of the last recovery request.
func (s *Server) RecoveryRedirect() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Path == "/auth/v1/recover" {
			return s.requests[i].Query.Get("redirect_to")
		}
	}
	return ""
}

type credentials struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeBody(r, &c); err != nil || c.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code": 400, "error_code": "validation_failed", "msg": "Signup requires a valid email",
		})
		return
	}
	if len(c.Password) < 6 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code": 422, "error_code": "weak_password", "msg": "Password should be at least 6 characters.",
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[c.Email]; ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code": 422, "error_code": "user_already_exists", "msg": "User already registered",
		})
		return
	}
	u := &user{ID: uuid.NewString(), Email: c.Email, Password: c.Password}
	s.users[c.Email] = u
	writeJSON(w, http.StatusOK, u.object())
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeBody(r, &c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_request", "error_description": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var u *user
	switch r.URL.Query().Get("grant_type") {
	case "password":
		if found, ok := s.users[c.Email]; ok && found.Password == c.Password {
			u = found
		}
	case "refresh_token":
		if email, ok := s.refresh[c.RefreshToken]; ok {
			delete(s.refresh, c.RefreshToken)
			u = s.users[email]
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "unsupported_grant_type", "error_description": "unsupported grant type",
		})
		return
	}

	if u == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "invalid_grant", "error_code": "invalid_credentials", "error_description": "Invalid login credentials",
		})
		return
	}
	writeJSON(w, http.StatusOK, s.issueSession(u))
}

// issueSession must be called with mu held.
func (s *Server) issueSession(u *user) map[string]any {
	exp := time.Now().Add(time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"role":  "authenticated",
		"exp":   exp.Unix(),
		"jti":   uuid.NewString(),
	})
	access, _ := tok.SignedString([]byte(signingSecret))
	refresh := uuid.NewString()

	s.tokens[access] = u.Email
	s.refresh[refresh] = u.Email
	return map[string]any{
		"access_token":  access,
		"token_type":    "bearer",
		"expires_in":    3600,
		"expires_at":    exp.Unix(),
		"refresh_token": refresh,
		"user":          u.object(),
	}
}

// currentUser must be called with mu held.
func (s *Server) currentUser(r *http.Request) *user {
	email, ok := s.tokens[bearer(r)]
	if !ok {
		return nil
	}
	return s.users[email]
}

func writeNoSession(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"code": 401, "error_code": "no_authorization", "msg": "This endpoint requires a Bearer token",
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.currentUser(r)
	if u == nil {
		writeNoSession(w)
		return
	}
	delete(s.tokens, bearer(r))
	for tok, email := range s.refresh {
		if email == u.Email {
			delete(s.refresh, tok)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeBody(r, &c); err != nil || c.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code": 400, "error_code": "validation_failed", "msg": "Password recovery requires an email",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.currentUser(r)
	if u == nil {
		writeNoSession(w)
		return
	}
	writeJSON(w, http.StatusOK, u.object())
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Data     map[string]any `json:"data"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": 400, "msg": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.currentUser(r)
	if u == nil {
		writeNoSession(w)
		return
	}
	if body.Password != "" {
		u.Password = body.Password
	}
	if body.Email != "" && body.Email != u.Email {
		delete(s.users, u.Email)
		for tok, email := range s.tokens {
			if email == u.Email {
				s.tokens[tok] = body.Email
			}
		}
		for tok, email := range s.refresh {
			if email == u.Email {
				s.refresh[tok] = body.Email
			}
		}
		u.Email = body.Email
		s.users[u.Email] = u
	}
	if len(body.Data) > 0 {
		if u.Metadata == nil {
			u.Metadata = map[string]any{}
		}
		for k, v := range body.Data {
			u.Metadata[k] = v
		}
	}
	writeJSON(w, http.StatusOK, u.object())
}

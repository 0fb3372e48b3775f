package client

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the token pair returned by the auth service on sign in or
// refresh.
type Session struct {
	AccessToken  string         `json:"access_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	ExpiresAt    int64          `json:"expires_at,omitempty"`
	RefreshToken string         `json:"refresh_token"`
	User         map[string]any `json:"user,omitempty"`
}

// Claims are the access-token fields the wrapper cares about.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Claims parses the access token without verifying its signature. The
// platform verifies it on every request.
func (s *Session) Claims() (*Claims, error) {
	if s == nil || s.AccessToken == "" {
		return nil, fmt.Errorf("session has no access token")
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}

// Expiry returns when the access token stops being valid. It prefers
// expires_at and falls back to the exp claim.
func (s *Session) Expiry() time.Time {
	if s == nil {
		return time.Time{}
	}
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	if c, err := s.Claims(); err == nil && c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// Expired reports whether the session is unusable at now. A session with no
// known expiry is treated as live.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return true
	}
	exp := s.Expiry()
	if exp.IsZero() {
		return false
	}
	return !now.Before(exp)
}

// UserID returns the subject of the access token, or the user object's id.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	if c, err := s.Claims(); err == nil && c.Subject != "" {
		return c.Subject
	}
	if id, ok := s.User["id"].(string); ok {
		return id
	}
	return ""
}

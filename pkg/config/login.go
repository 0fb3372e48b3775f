package config

import (
	"os"
	"strings"

	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
)

// Environment variables read by LoginFromEnv.
const (
	EnvURL         = "SUPABASE_URL"
	EnvKey         = "SUPABASE_KEY"
	EnvServiceRole = "SUPABASE_SERVICE_ROLE"
)

// Login holds the project URL, the anon (default-privilege) key and an
// optional service-role key.
type Login struct {
	URL         string
	Key         string
	ServiceRole string
}

// HasServiceRole reports whether an elevated-privilege key is configured.
func (l Login) HasServiceRole() bool {
	return strings.TrimSpace(l.ServiceRole) != ""
}

// LoginFromEnv builds a Login from SUPABASE_URL, SUPABASE_KEY and the
// optional SUPABASE_SERVICE_ROLE.
func LoginFromEnv() (Login, error) {
	url, err := requiredEnv(EnvURL)
	if err != nil {
		return Login{}, err
	}
	key, err := requiredEnv(EnvKey)
	if err != nil {
		return Login{}, err
	}
	return Login{
		URL:         url,
		Key:         key,
		ServiceRole: strings.TrimSpace(os.Getenv(EnvServiceRole)),
	}, nil
}

func requiredEnv(key string) (string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", apperrors.NewValidationError(key, "environment variable not set", nil)
	}
	return v, nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

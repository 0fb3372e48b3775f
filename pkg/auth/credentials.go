package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DeBrosOfficial/supasaas/pkg/client"
)

// Credentials is a persisted session for one project.
type Credentials struct {
	Email      string          `json:"email,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	Session    *client.Session `json:"session"`
	IssuedAt   time.Time       `json:"issued_at"`
	LastUsedAt time.Time       `json:"last_used_at,omitempty"`
}

// CredentialStore manages sessions for multiple projects, keyed by URL.
type CredentialStore struct {
	Projects map[string]*Credentials `json:"projects"`
	Version  string                  `json:"version"`

	path string
}

// GetCredentialsPath returns the path to the credentials file
func GetCredentialsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".supasaas")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create .supasaas directory: %w", err)
	}

	return filepath.Join(dir, "credentials.json"), nil
}

// LoadCredentials loads credentials from ~/.supasaas/credentials.json
func LoadCredentials() (*CredentialStore, error) {
	credPath, err := GetCredentialsPath()
	if err != nil {
		return nil, err
	}
	return LoadCredentialsFrom(credPath)
}

// LoadCredentialsFrom loads a store from path. A missing file is an empty store.
func LoadCredentialsFrom(path string) (*CredentialStore, error) {
	store := &CredentialStore{
		Projects: make(map[string]*Credentials),
		Version:  "1.0",
		path:     path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if store.Projects == nil {
		store.Projects = make(map[string]*Credentials)
	}
	if store.Version == "" {
		store.Version = "1.0"
	}
	return store, nil
}

// SaveCredentials writes the store back to the file it was loaded from.
func (store *CredentialStore) SaveCredentials() error {
	if store.path == "" {
		p, err := GetCredentialsPath()
		if err != nil {
			return err
		}
		store.path = p
	}
	if store.Version == "" {
		store.Version = "1.0"
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Readable only by owner
	if err := os.WriteFile(store.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func projectKey(projectURL string) string {
	return strings.TrimSuffix(strings.TrimSpace(projectURL), "/")
}

// Get returns live credentials for projectURL. Expired sessions with a
// refresh token are still returned so the caller can refresh them.
func (store *CredentialStore) Get(projectURL string) (*Credentials, bool) {
	creds, exists := store.Projects[projectKey(projectURL)]
	if !exists || !creds.IsValid() {
		return nil, false
	}
	return creds, true
}

// Set stores credentials for projectURL.
func (store *CredentialStore) Set(projectURL string, creds *Credentials) {
	if store.Projects == nil {
		store.Projects = make(map[string]*Credentials)
	}
	creds.LastUsedAt = time.Now()
	store.Projects[projectKey(projectURL)] = creds
}

// Remove drops credentials for projectURL.
func (store *CredentialStore) Remove(projectURL string) {
	delete(store.Projects, projectKey(projectURL))
}

// NewCredentials captures s for persistence.
func NewCredentials(email string, s *client.Session) *Credentials {
	return &Credentials{
		Email:    email,
		UserID:   s.UserID(),
		Session:  s,
		IssuedAt: time.Now(),
	}
}

// IsExpired reports whether the access token has expired.
func (creds *Credentials) IsExpired() bool {
	return creds.Session.Expired(time.Now())
}

// IsValid checks the credentials carry a session that is live or refreshable.
func (creds *Credentials) IsValid() bool {
	if creds == nil || creds.Session == nil || creds.Session.AccessToken == "" {
		return false
	}
	return !creds.IsExpired() || creds.Session.RefreshToken != ""
}

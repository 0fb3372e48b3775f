package config

import (
	"time"
)

// Config is the file-level configuration used by the CLI and by callers that
// prefer YAML over environment variables.
type Config struct {
	Supabase SupabaseConfig `yaml:"supabase"`
	Client   ClientConfig   `yaml:"client"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
}

// SupabaseConfig holds the project credentials.
type SupabaseConfig struct {
	URL         string `yaml:"url"`
	Key         string `yaml:"key"`
	ServiceRole string `yaml:"service_role"` // Optional; enables the elevated-privilege client
}

// ClientConfig tunes the HTTP transport.
type ClientConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	UserAgent     string        `yaml:"user_agent"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // console, json
	OutputFile string `yaml:"output_file"` // Empty for stdout
	MaxSizeMB  int    `yaml:"max_size_mb"` // Rotate output_file past this size
	MaxBackups int    `yaml:"max_backups"` // Rotated files to keep, 0 keeps all
	Colors     bool   `yaml:"colors"`
}

// AuthConfig holds defaults for auth flows.
type AuthConfig struct {
	RedirectDomain string `yaml:"redirect_domain"` // Prefix for the reset-password redirect
}

// StorageConfig holds defaults for storage calls.
type StorageConfig struct {
	SignedURLExpiry int `yaml:"signed_url_expiry"` // Seconds
}

// Login returns the credentials section as a Login value.
func (c *Config) Login() Login {
	return Login{
		URL:         c.Supabase.URL,
		Key:         c.Supabase.Key,
		ServiceRole: c.Supabase.ServiceRole,
	}
}

// DefaultConfig returns a configuration with the client defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    500 * time.Millisecond,
			UserAgent:     "supasaas-go",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			Colors:     true,
		},
		Storage: StorageConfig{
			SignedURLExpiry: 3600,
		},
	}
}

package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DecodeStrict decodes YAML from a reader and rejects any unknown fields.
// This ensures the YAML only contains recognized configuration keys.
func DecodeStrict(r io.Reader, out interface{}) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig reads path (when non-empty) over the defaults and then applies
// environment overrides. Env wins over the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config %s: %w", path, err)
		}
		defer f.Close()
		if err := DecodeStrict(f, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Supabase.URL = getEnvDefault(EnvURL, c.Supabase.URL)
	c.Supabase.Key = getEnvDefault(EnvKey, c.Supabase.Key)
	c.Supabase.ServiceRole = getEnvDefault(EnvServiceRole, c.Supabase.ServiceRole)
	c.Logging.Level = getEnvDefault("SUPASAAS_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnvDefault("SUPASAAS_LOG_FORMAT", c.Logging.Format)
	c.Auth.RedirectDomain = getEnvDefault("SUPASAAS_REDIRECT_DOMAIN", c.Auth.RedirectDomain)
}

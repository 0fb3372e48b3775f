package config

import (
	"github.com/DeBrosOfficial/supasaas/pkg/config/validate"
)

// ValidationError represents a single validation error with context.
// It is defined in the validate subpackage.
type ValidationError = validate.ValidationError

// Validate performs validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.Login().Validate()...)
	errs = append(errs, validate.ValidateClient(validate.ClientConfig{
		Timeout:       c.Client.Timeout,
		RetryAttempts: c.Client.RetryAttempts,
		RetryDelay:    c.Client.RetryDelay,
	})...)
	errs = append(errs, validate.ValidateLogging(validate.LoggingConfig{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		OutputFile: c.Logging.OutputFile,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
	})...)
	errs = append(errs, validate.ValidateStorage(validate.StorageConfig{
		SignedURLExpiry: c.Storage.SignedURLExpiry,
	})...)

	return errs
}

// Validate checks the credentials alone. NewClient uses it before building handles.
func (l Login) Validate() []error {
	return validate.ValidateSupabase(validate.SupabaseConfig{
		URL:         l.URL,
		Key:         l.Key,
		ServiceRole: l.ServiceRole,
	})
}

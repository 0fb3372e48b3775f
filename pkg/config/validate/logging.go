package validate

import (
	"fmt"
	"path/filepath"
)

// LoggingConfig represents the logging configuration for validation purposes.
type LoggingConfig struct {
	Level      string
	Format     string
	OutputFile string
	MaxSizeMB  int
	MaxBackups int
}

// ValidateLogging performs validation of the logging configuration.
func ValidateLogging(log LoggingConfig) []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[log.Level] {
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("invalid value %q", log.Level),
			Hint:    "allowed values: debug, info, warn, error",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[log.Format] {
		errs = append(errs, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("invalid value %q", log.Format),
			Hint:    "allowed values: json, console",
		})
	}

	if log.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{
			Path:    "logging.max_size_mb",
			Message: fmt.Sprintf("must be >= 0; got %d", log.MaxSizeMB),
		})
	}
	if log.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Path:    "logging.max_backups",
			Message: fmt.Sprintf("must be >= 0; got %d", log.MaxBackups),
		})
	}

	if log.OutputFile != "" {
		dir := filepath.Dir(log.OutputFile)
		if dir != "" && dir != "." {
			if err := ValidateDirWritable(dir); err != nil {
				errs = append(errs, ValidationError{
					Path:    "logging.output_file",
					Message: fmt.Sprintf("parent directory not writable: %v", err),
				})
			}
		}
	}
	return errs
}

// StorageConfig represents storage defaults for validation purposes.
type StorageConfig struct {
	SignedURLExpiry int
}

// ValidateStorage checks storage defaults.
func ValidateStorage(s StorageConfig) []error {
	if s.SignedURLExpiry < 0 {
		return []error{ValidationError{
			Path:    "storage.signed_url_expiry",
			Message: fmt.Sprintf("must be >= 0; got %d", s.SignedURLExpiry),
		}}
	}
	return nil
}

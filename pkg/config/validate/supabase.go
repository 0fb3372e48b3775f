package validate

import (
	"fmt"
	"strings"
	"time"
)

// SupabaseConfig represents the project credentials for validation purposes.
type SupabaseConfig struct {
	URL         string
	Key         string
	ServiceRole string
}

// ValidateSupabase checks the project URL and the anon key.
func ValidateSupabase(s SupabaseConfig) []error {
	var errs []error

	if err := ValidateURL(s.URL); err != nil {
		errs = append(errs, ValidationError{
			Path:    "supabase.url",
			Message: err.Error(),
			Hint:    "expected https://<project>.supabase.co",
		})
	}
	if strings.TrimSpace(s.Key) == "" {
		errs = append(errs, ValidationError{
			Path:    "supabase.key",
			Message: "must not be empty",
		})
	}
	if s.ServiceRole != "" && s.ServiceRole == s.Key {
		errs = append(errs, ValidationError{
			Path:    "supabase.service_role",
			Message: "must differ from supabase.key",
			Hint:    "use the service_role secret from the project API settings",
		})
	}
	return errs
}

// ClientConfig represents the transport settings for validation purposes.
type ClientConfig struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// ValidateClient checks timeouts and retry settings.
func ValidateClient(c ClientConfig) []error {
	var errs []error

	if c.Timeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "client.timeout",
			Message: fmt.Sprintf("must be >= 0; got %s", c.Timeout),
		})
	}
	if c.RetryAttempts < 1 {
		errs = append(errs, ValidationError{
			Path:    "client.retry_attempts",
			Message: fmt.Sprintf("must be >= 1; got %d", c.RetryAttempts),
		})
	}
	if c.RetryDelay < 0 {
		errs = append(errs, ValidationError{
			Path:    "client.retry_delay",
			Message: fmt.Sprintf("must be >= 0; got %s", c.RetryDelay),
		})
	}
	return errs
}

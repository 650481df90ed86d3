package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const minTimeout = 1 * time.Second

// validLogLevels are the accepted logging.log_level values.
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks all configuration values and returns every error found,
// so users can fix all issues in one pass. OAuth credentials are checked
// separately by ValidateOAuth because offline commands do not need them.
func Validate(cfg *Config) error {
	var errs []error

	if !validLogLevels[cfg.Logging.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", cfg.Logging.LogLevel))
	}

	if _, err := parseTimeout(cfg.Network.Timeout); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, validateURL("base_url", cfg.Drive.BaseURL)...)
	errs = append(errs, validateURL("upload_url", cfg.Drive.UploadURL)...)

	return errors.Join(errs...)
}

// ValidateOAuth checks that every field a session needs is present.
func ValidateOAuth(o *OAuthConfig) error {
	var errs []error

	required := []struct {
		key   string
		value string
	}{
		{"client_id", o.ClientID},
		{"api_key", o.APIKey},
		{"project_number", o.ProjectNumber},
		{"scope", o.Scope},
	}

	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("oauth.%s: required", r.key))
		}
	}

	return errors.Join(errs...)
}

// TimeoutDuration returns the parsed HTTP timeout. Validate guarantees it
// parses; an invalid value falls back to the default.
func (n *NetworkConfig) TimeoutDuration() time.Duration {
	d, err := parseTimeout(n.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(defaultTimeout) //nolint:errcheck // constant

		return d
	}

	return d
}

func parseTimeout(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("timeout: invalid duration %q: %w", raw, err)
	}

	if d < minTimeout {
		return 0, fmt.Errorf("timeout: must be at least %s, got %s", minTimeout, d)
	}

	return d, nil
}

func validateURL(key, raw string) []error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return []error{fmt.Errorf("%s: %w", key, err)}
	}

	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return []error{fmt.Errorf("%s: must be an absolute http(s) URL, got %q", key, raw)}
	}

	return nil
}

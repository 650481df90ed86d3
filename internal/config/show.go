package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as an annotated summary
// to w. Secrets are masked.
func RenderEffective(cfg *Config, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration\n\n")

	ew.printf("[oauth]\n")
	ew.printf("  client_id      = %q\n", cfg.OAuth.ClientID)
	ew.printf("  client_secret  = %q\n", mask(cfg.OAuth.ClientSecret))
	ew.printf("  api_key        = %q\n", mask(cfg.OAuth.APIKey))
	ew.printf("  project_number = %q\n", cfg.OAuth.ProjectNumber)
	ew.printf("  scope          = %q\n\n", cfg.OAuth.Scope)

	ew.printf("[drive]\n")
	ew.printf("  support_all_drives = %t\n", cfg.Drive.SupportAllDrives)

	if cfg.Drive.BaseURL != "" {
		ew.printf("  base_url           = %q\n", cfg.Drive.BaseURL)
	}

	if cfg.Drive.UploadURL != "" {
		ew.printf("  upload_url         = %q\n", cfg.Drive.UploadURL)
	}

	ew.printf("\n[logging]\n")
	ew.printf("  log_level = %q\n\n", cfg.Logging.LogLevel)

	ew.printf("[network]\n")
	ew.printf("  timeout    = %q\n", cfg.Network.Timeout)

	if cfg.Network.UserAgent != "" {
		ew.printf("  user_agent = %q\n", cfg.Network.UserAgent)
	}

	return ew.err
}

// mask hides a secret, keeping only whether it is set.
func mask(secret string) string {
	if secret == "" {
		return ""
	}

	return "********"
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

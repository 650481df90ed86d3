// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for gdrive-go. Values are resolved
// through an override chain: defaults -> config file -> .env file ->
// environment -> CLI flags.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	OAuth   OAuthConfig   `toml:"oauth" json:"oauth"`
	Drive   DriveConfig   `toml:"drive" json:"drive"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Network NetworkConfig `toml:"network" json:"network"`
}

// OAuthConfig identifies the registered application. ClientSecret is needed
// only by the loopback login flow (installed-app clients); the picker needs
// APIKey and ProjectNumber.
type OAuthConfig struct {
	ClientID      string `toml:"client_id" json:"client_id"`
	ClientSecret  string `toml:"client_secret" json:"-"`
	APIKey        string `toml:"api_key" json:"-"`
	ProjectNumber string `toml:"project_number" json:"project_number"`
	Scope         string `toml:"scope" json:"scope"`
}

// DriveConfig controls which storage scopes and endpoints are used.
// Empty URLs select the public Drive endpoints.
type DriveConfig struct {
	SupportAllDrives bool   `toml:"support_all_drives" json:"support_all_drives"`
	BaseURL          string `toml:"base_url" json:"base_url,omitempty"`
	UploadURL        string `toml:"upload_url" json:"upload_url,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	LogLevel string `toml:"log_level" json:"log_level"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	Timeout   string `toml:"timeout" json:"timeout"`
	UserAgent string `toml:"user_agent" json:"user_agent,omitempty"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to the zero value".
type CLIOverrides struct {
	ConfigPath       string // --config flag (empty = use default)
	SupportAllDrives *bool  // --all-drives flag
}

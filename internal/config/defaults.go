package config

// Default values for configuration options.
const (
	defaultScope    = "https://www.googleapis.com/auth/drive.file"
	defaultLogLevel = "info"
	defaultTimeout  = "30s"
)

// DefaultConfig returns a Config populated with all default values. It is
// the starting point for TOML decoding, so unset fields keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		OAuth: OAuthConfig{
			Scope: defaultScope,
		},
		Logging: LoggingConfig{
			LogLevel: defaultLogLevel,
		},
		Network: NetworkConfig{
			Timeout: defaultTimeout,
		},
	}
}

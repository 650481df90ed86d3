package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal errors with "did you mean?"
// suggestions.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
// .env files reach this function through the environment (LoadDotEnv).
func Resolve(env EnvOverrides, cli CLIOverrides) (*Config, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	if err := applyEnv(cfg, env); err != nil {
		return nil, err
	}

	if cli.SupportAllDrives != nil {
		cfg.Drive.SupportAllDrives = *cli.SupportAllDrives
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyEnv copies every non-empty environment override onto cfg.
func applyEnv(cfg *Config, env EnvOverrides) error {
	overrides := []struct {
		value string
		dst   *string
	}{
		{env.ClientID, &cfg.OAuth.ClientID},
		{env.ClientSecret, &cfg.OAuth.ClientSecret},
		{env.APIKey, &cfg.OAuth.APIKey},
		{env.ProjectNumber, &cfg.OAuth.ProjectNumber},
		{env.Scope, &cfg.OAuth.Scope},
	}

	for _, o := range overrides {
		if o.value != "" {
			*o.dst = o.value
		}
	}

	if env.SupportAllDrives != "" {
		v, err := strconv.ParseBool(env.SupportAllDrives)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSupportAllDrives, err)
		}

		cfg.Drive.SupportAllDrives = v
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names for overrides.
const (
	EnvConfig           = "GDRIVE_GO_CONFIG"
	EnvDotEnv           = "GDRIVE_GO_ENV_FILE"
	EnvClientID         = "GDRIVE_GO_CLIENT_ID"
	EnvClientSecret     = "GDRIVE_GO_CLIENT_SECRET"
	EnvAPIKey           = "GDRIVE_GO_API_KEY"
	EnvProjectNumber    = "GDRIVE_GO_PROJECT_NUMBER"
	EnvScope            = "GDRIVE_GO_SCOPE"
	EnvSupportAllDrives = "GDRIVE_GO_SUPPORT_ALL_DRIVES"
)

// defaultDotEnvFile is loaded from the working directory when present.
const defaultDotEnvFile = ".env"

// EnvOverrides holds values derived from environment variables. Empty
// strings mean "not set".
type EnvOverrides struct {
	ConfigPath       string
	ClientID         string
	ClientSecret     string
	APIKey           string
	ProjectNumber    string
	Scope            string
	SupportAllDrives string
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. An empty path means
// GDRIVE_GO_ENV_FILE or ./.env; a missing default file is not an error.
func LoadDotEnv(path string) error {
	explicit := path != ""

	if !explicit {
		path = os.Getenv(EnvDotEnv)
		explicit = path != ""
	}

	if path == "" {
		path = defaultDotEnvFile
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}

	return nil
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. It does not modify a Config; Resolve applies the fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:       os.Getenv(EnvConfig),
		ClientID:         os.Getenv(EnvClientID),
		ClientSecret:     os.Getenv(EnvClientSecret),
		APIKey:           os.Getenv(EnvAPIKey),
		ProjectNumber:    os.Getenv(EnvProjectNumber),
		Scope:            os.Getenv(EnvScope),
		SupportAllDrives: os.Getenv(EnvSupportAllDrives),
	}
}

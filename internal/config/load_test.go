package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTestConfig(t, `
[oauth]
client_id = "cid.apps.googleusercontent.com"
client_secret = "shh"
api_key = "AIza-key"
project_number = "123456"
scope = "https://www.googleapis.com/auth/drive"

[drive]
support_all_drives = true
base_url = "http://localhost:9000/drive/v3"

[logging]
log_level = "debug"

[network]
timeout = "45s"
user_agent = "custom/1.0"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cid.apps.googleusercontent.com", cfg.OAuth.ClientID)
	assert.Equal(t, "shh", cfg.OAuth.ClientSecret)
	assert.Equal(t, "AIza-key", cfg.OAuth.APIKey)
	assert.Equal(t, "123456", cfg.OAuth.ProjectNumber)
	assert.Equal(t, "https://www.googleapis.com/auth/drive", cfg.OAuth.Scope)
	assert.True(t, cfg.Drive.SupportAllDrives)
	assert.Equal(t, "http://localhost:9000/drive/v3", cfg.Drive.BaseURL)
	assert.Empty(t, cfg.Drive.UploadURL)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "45s", cfg.Network.Timeout)
	assert.Equal(t, "custom/1.0", cfg.Network.UserAgent)
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	path := writeTestConfig(t, `
[oauth]
client_id = "cid"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cid", cfg.OAuth.ClientID)
	assert.Equal(t, defaultScope, cfg.OAuth.Scope)
	assert.Equal(t, defaultLogLevel, cfg.Logging.LogLevel)
	assert.Equal(t, defaultTimeout, cfg.Network.Timeout)
	assert.False(t, cfg.Drive.SupportAllDrives)
}

func TestLoad_UnknownKey_Suggestion(t *testing.T) {
	path := writeTestConfig(t, `
[oauth]
client_idd = "cid"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
	assert.Contains(t, err.Error(), "oauth.client_id")
}

func TestLoad_UnknownSection(t *testing.T) {
	path := writeTestConfig(t, `
[loging]
log_level = "debug"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config section")
	assert.Contains(t, err.Error(), `"logging"`)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTestConfig(t, `[oauth`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeTestConfig(t, `
[logging]
log_level = "loud"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func clearEnv(t *testing.T) {
	t.Helper()

	for _, k := range []string{
		EnvConfig, EnvClientID, EnvClientSecret, EnvAPIKey,
		EnvProjectNumber, EnvScope, EnvSupportAllDrives,
	} {
		t.Setenv(k, "")
	}
}

func TestResolve_OverrideChain(t *testing.T) {
	clearEnv(t)

	path := writeTestConfig(t, `
[oauth]
client_id = "from-file"
api_key = "file-key"

[drive]
support_all_drives = false
`)

	env := EnvOverrides{ClientID: "from-env", SupportAllDrives: "true"}
	cfg, err := Resolve(env, CLIOverrides{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OAuth.ClientID)
	assert.Equal(t, "file-key", cfg.OAuth.APIKey)
	assert.True(t, cfg.Drive.SupportAllDrives)

	off := false
	cfg, err = Resolve(env, CLIOverrides{ConfigPath: path, SupportAllDrives: &off})
	require.NoError(t, err)
	assert.False(t, cfg.Drive.SupportAllDrives, "CLI flag wins over env")
}

func TestResolve_EnvConfigPath(t *testing.T) {
	path := writeTestConfig(t, `
[oauth]
project_number = "42"
`)

	cfg, err := Resolve(EnvOverrides{ConfigPath: path}, CLIOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "42", cfg.OAuth.ProjectNumber)
}

func TestResolve_CLIConfigPathWinsOverEnv(t *testing.T) {
	envPath := writeTestConfig(t, `
[oauth]
project_number = "env"
`)
	cliPath := writeTestConfig(t, `
[oauth]
project_number = "cli"
`)

	cfg, err := Resolve(EnvOverrides{ConfigPath: envPath}, CLIOverrides{ConfigPath: cliPath})
	require.NoError(t, err)
	assert.Equal(t, "cli", cfg.OAuth.ProjectNumber)
}

func TestResolve_InvalidEnvBool(t *testing.T) {
	path := writeTestConfig(t, "")

	_, err := Resolve(EnvOverrides{SupportAllDrives: "maybe"}, CLIOverrides{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvSupportAllDrives)
}

func TestResolve_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Resolve(EnvOverrides{}, CLIOverrides{ConfigPath: filepath.Join(t.TempDir(), "missing.toml")})
	require.NoError(t, err)
	assert.Equal(t, defaultScope, cfg.OAuth.Scope)
}

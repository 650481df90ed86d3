package main

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/gdrive-go/internal/config"
)

// newRootCmd rebinds the global flags to their defaults, so tests set the
// globals only after it returns, or pass flags through SetArgs.

func resetFlags(t *testing.T) {
	t.Helper()

	_ = newRootCmd()

	t.Cleanup(func() { _ = newRootCmd() })
}

func TestBuildLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		verbose  bool
		quiet    bool
		enabled  slog.Level
		disabled slog.Level
	}{
		{"default info", "info", false, false, slog.LevelInfo, slog.LevelDebug},
		{"config debug", "debug", false, false, slog.LevelDebug, slog.LevelDebug - 1},
		{"config warn", "warn", false, false, slog.LevelWarn, slog.LevelInfo},
		{"config error", "error", false, false, slog.LevelError, slog.LevelWarn},
		{"verbose wins", "error", true, false, slog.LevelDebug, slog.LevelDebug - 1},
		{"quiet wins", "debug", false, true, slog.LevelError, slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)

			flagVerbose = tt.verbose
			flagQuiet = tt.quiet

			cfg := config.DefaultConfig()
			cfg.Logging.LogLevel = tt.level

			h := buildLogger(cfg).Handler()
			assert.True(t, h.Enabled(context.Background(), tt.enabled))
			assert.False(t, h.Enabled(context.Background(), tt.disabled))
		})
	}
}

func TestMustCLIContext_Panics(t *testing.T) {
	assert.Panics(t, func() { mustCLIContext(context.Background()) })
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{
		"login", "logout", "whoami", "ls", "stat", "get", "cat", "put",
		"pick", "export-info", "handshake", "config",
	} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestOfflineCommands_IgnoreBrokenConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvDotEnv, "")
	t.Chdir(home)

	broken := writeFile(t, home, "broken.toml", "[oauth\n")

	out, err := runCLI(t, "--config", broken, "export-info", "text/plain")
	require.NoError(t, err)
	assert.Contains(t, out, "downloaded as-is")

	_, err = runCLI(t, "--config", broken, "ls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestAllDrivesFlag_Overrides(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	out, err := runCLI(t, "--all-drives", "--json", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"support_all_drives": true`)

	out, err = runCLI(t, "--json", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"support_all_drives": false`)
}

func TestDotEnvFile_SuppliesSettings(t *testing.T) {
	_, url := startFakeDrive(t)
	home := cliEnv(t, url)

	envFile := writeFile(t, home, "custom.env", config.EnvProjectNumber+"=from-dotenv\n")

	// godotenv never overrides a variable that exists, even when empty.
	os.Unsetenv(config.EnvProjectNumber)

	out, err := runCLI(t, "--env-file", envFile, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `project_number = "from-dotenv"`)
}

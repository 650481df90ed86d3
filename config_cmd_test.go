package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigShow_MasksSecrets(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	out, err := runCLI(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, testClientID)
	assert.NotContains(t, out, "cli-secret")
	assert.NotContains(t, out, "cli-api-key")
	assert.Contains(t, out, url)
}

func TestConfigShow_JSONOmitsSecrets(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	out, err := runCLI(t, "--json", "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "cli-secret")
	assert.NotContains(t, out, "cli-api-key")

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "424242", got["oauth"]["project_number"])
	assert.Equal(t, "info", got["logging"]["log_level"])
}

func TestConfigPath(t *testing.T) {
	_, url := startFakeDrive(t)
	home := cliEnv(t, url)

	out, err := runCLI(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, home)
	assert.Contains(t, out, "config.toml")
	assert.Contains(t, out, "token.json")
}

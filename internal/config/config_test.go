package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HasSaneBuiltinValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 4, cfg.MaxWorkers)
	assert.Equal(t, "QUALITY", cfg.DefaultMode)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Local.BaseURL)
	assert.Equal(t, 120, cfg.Cloud.TimeoutSecs)
}

func TestLoad_MissingConfigFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxWorkers)
}

func TestLoad_ReadsValuesFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "max_workers: 8\ndefault_mode: SPEED\ncloud:\n  api_key: test-key\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.Equal(t, "SPEED", cfg.DefaultMode)
	assert.Equal(t, "test-key", cfg.Cloud.APIKey)
}

func TestLoad_EnvironmentVariableOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_workers: 2\n"), 0o644))

	t.Setenv("ORC_ENGINE_MAX_WORKERS", "16")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.MaxWorkers)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
data_dir: /var/lib/elusched
listen_addr: ":9090"
min_lock_minutes: 45
log_level: debug
log_format: console
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/elusched", cfg.DataDir)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 45, cfg.MinLockMinutes)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_UnsetFieldsUseDefaults(t *testing.T) {
	path := writeConfig(t, `data_dir: /tmp/x`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().ListenAddr, cfg.ListenAddr)
	assert.Equal(t, Default().MinLockMinutes, cfg.MinLockMinutes)
	assert.Equal(t, Default().LogLevel, cfg.LogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `min_lock_minutes: -5`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_lock_minutes")
}

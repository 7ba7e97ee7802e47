package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fxnlabs/device-runtime/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
devices:
  - cpu
  - accel:0
  - pinned
logger:
  verbosity: debug
metrics:
  listen: ":9102"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"cpu", "accel:0", "pinned"}, cfg.Devices)
	assert.Equal(t, "debug", cfg.Logger.Verbosity)
	assert.Equal(t, ":9102", cfg.Metrics.Listen)

	places, err := cfg.Places()
	require.NoError(t, err)
	assert.Equal(t, []device.Place{device.CPU(), device.Accel(0), device.Pinned()}, places)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `devices: [cpu]`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logger.Verbosity)
	assert.Empty(t, cfg.Metrics.Listen)
}

func TestLoadConfig_EmptyDevices(t *testing.T) {
	path := writeConfig(t, `logger: {verbosity: info}`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestConfig_PlacesInvalid(t *testing.T) {
	cfg := Default()
	cfg.Devices = []string{"cpu", "tpu:0"}

	_, err := cfg.Places()
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "cadence.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
transport:
  mode: http
server:
  host: 127.0.0.1
  port: 9090
db:
  path: /tmp/cadence-test.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("CADENCE_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "/tmp/cadence-test.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))
	t.Setenv("CADENCE_CONFIG_PATH", path)
	t.Setenv("CADENCE_SERVER_PORT", "7070")
	t.Setenv("CADENCE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestInvalidPort(t *testing.T) {
	t.Setenv("CADENCE_SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}

func TestInvalidTransportMode(t *testing.T) {
	t.Setenv("CADENCE_TRANSPORT_MODE", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)
}

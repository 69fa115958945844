package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 24, cfg.Auth.TokenExpirationHours)
	assert.Equal(t, 1, cfg.Engine.FanOutConcurrency)
	assert.Equal(t, 5000, cfg.Engine.ScriptTimeoutMS)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"server": {"port": 9090},
		"storage": {"type": "redis", "redis": {"addr": "redis:6379"}},
		"engine": {"fan_out_concurrency": 8}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 8, cfg.Engine.FanOutConcurrency)

	// Untouched values keep their defaults.
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Engine.ScriptTimeoutMS)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FLOWGRAPH_HOST", "0.0.0.0")
	t.Setenv("FLOWGRAPH_PORT", "3000")
	t.Setenv("FLOWGRAPH_STORAGE_TYPE", "redis")
	t.Setenv("FLOWGRAPH_JWT_SECRET", "env-secret")

	cfg := DefaultConfig()
	cfg.FromEnv()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestFromEnvIgnoresInvalidPort(t *testing.T) {
	t.Setenv("FLOWGRAPH_PORT", "not-a-number")

	cfg := DefaultConfig()
	cfg.FromEnv()
	assert.Equal(t, 8080, cfg.Server.Port)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "qwen-plus", cfg.DashScope.Model)
	assert.Equal(t, "terminal_user", cfg.Assistant.UserID)
	assert.Equal(t, 5, cfg.Assistant.MaxIterations)
	assert.False(t, cfg.HasCredential())
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
dashscope:
  apiKey: sk-test
  model: qwen-max
assistant:
  userId: alice
redis:
  host: localhost
  port: 6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.DashScope.APIKey)
	assert.Equal(t, "qwen-max", cfg.DashScope.Model)
	assert.Equal(t, "alice", cfg.Assistant.UserID)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.True(t, cfg.HasCredential())
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dashscope:\n  apiKey: sk-file\n"), 0o644))

	t.Setenv(EnvAPIKey, "sk-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.DashScope.APIKey)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dashscope: [broken"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

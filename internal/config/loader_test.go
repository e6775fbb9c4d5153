package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromReader(t *testing.T) {
	input := `
server:
  port: 9090
  readTimeout: 15s
queue:
  maxConcurrentJobs: 4
`
	cfg, err := LoadConfigFromReader(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout.Duration())
	assert.Equal(t, 4, cfg.Queue.MaxConcurrentJobs)
}

func TestLoadConfigFromReader_AbsentFieldsKeepDefaults(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`server: {port: 9999}`))
	require.NoError(t, err)

	defaults := DefaultConfig()
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, defaults.Queue.MaxQueueSize, cfg.Queue.MaxQueueSize)
	assert.Equal(t, defaults.Cache.TTL, cfg.Cache.TTL)
	assert.Equal(t, defaults.Observability.LogLevel, cfg.Observability.LogLevel)
}

func TestLoadConfigFromReader_InvalidYAML(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("server: [unclosed"))
	assert.Error(t, err)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8181\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("DIFF_TEST_PORT", "7070")
	t.Setenv("DIFF_TEST_LEVEL", "debug")

	input := `
server:
  port: ${DIFF_TEST_PORT}
observability:
  logLevel: ${DIFF_TEST_LEVEL}
  logFormat: ${DIFF_TEST_FORMAT:-console}
`
	cfg, err := LoadConfigFromReader(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "console", cfg.Observability.LogFormat)
}

func TestEnvSubstitution_SetVariableWinsOverDefault(t *testing.T) {
	t.Setenv("DIFF_TEST_FORMAT", "json")

	cfg, err := LoadConfigFromReader(strings.NewReader(
		"observability:\n  logFormat: ${DIFF_TEST_FORMAT:-console}\n"))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
}

func TestEnvSubstitution_UnsetWithoutDefaultBecomesEmpty(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(
		"cache:\n  type: \"${DIFF_TEST_UNSET_VAR}memory\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Cache.Type)
}

func TestEnvSubstitution_EscapedDollar(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(
		"cache:\n  redis:\n    password: \"$${literal}\"\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Cache.Redis)
	assert.Equal(t, "${literal}", cfg.Cache.Redis.Password)
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	resolved, err := ResolveConfigPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	_, err = ResolveConfigPath(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

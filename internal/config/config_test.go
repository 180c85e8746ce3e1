package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 18930, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, "token", cfg.Gateway.Auth.Mode)
	assert.Equal(t, 0.7, cfg.Engine.ConfidenceThreshold)
	assert.Equal(t, 2, cfg.Engine.ExpectedParts)
	assert.Equal(t, 30, cfg.Session.IdleMinutes)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Gateway.Port, cfg.Gateway.Port)
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
gateway:
  port: 9000
engine:
  confidenceThreshold: 0.8
capabilities:
  impact_analysis:
    endpoint: https://analytics.internal/impact
    token: ${CHAINSENSE_TEST_CAP_TOKEN}
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("CHAINSENSE_TEST_CAP_TOKEN", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Gateway.Port)
	assert.Equal(t, 0.8, cfg.Engine.ConfidenceThreshold)
	// untouched sections keep their defaults
	assert.Equal(t, 2, cfg.Engine.ExpectedParts)
	assert.Equal(t, 30, cfg.Session.IdleMinutes)
	// env expansion on sensitive fields
	assert.Equal(t, "s3cret", cfg.Capabilities["impact_analysis"].Token)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHAINSENSE_GATEWAY_PORT", "7777")
	t.Setenv("CHAINSENSE_LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Gateway.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway: [not a map"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config:")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CHAINSENSE_TEST_VAR", "value")

	assert.Equal(t, "value", expandEnvVars("${CHAINSENSE_TEST_VAR}"))
	assert.Equal(t, "pre-value-post", expandEnvVars("pre-${CHAINSENSE_TEST_VAR}-post"))
	// unset vars stay as-is
	assert.Equal(t, "${CHAINSENSE_UNSET_VAR_XYZ}", expandEnvVars("${CHAINSENSE_UNSET_VAR_XYZ}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	assert.Nil(t, Validate(&cfg))

	cfg.Gateway.Port = 70000
	cfg.Gateway.Bind = "everywhere"
	cfg.Engine.ConfidenceThreshold = 1.5
	cfg.Engine.ExpectedParts = 1
	cfg.Logging.Level = "loud"
	cfg.Capabilities = map[string]CapabilityEntry{
		"impact_analysis": {Endpoint: "ftp://nope"},
		"analytics":       {},
	}

	issues := Validate(&cfg)
	paths := make([]string, 0, len(issues))
	for _, i := range issues {
		paths = append(paths, i.Path)
	}

	assert.Contains(t, paths, "gateway.port")
	assert.Contains(t, paths, "gateway.bind")
	assert.Contains(t, paths, "engine.confidenceThreshold")
	assert.Contains(t, paths, "engine.expectedParts")
	assert.Contains(t, paths, "logging.level")
	assert.Contains(t, paths, "capabilities.impact_analysis.endpoint")
	assert.Contains(t, paths, "capabilities.analytics.endpoint")
}

func TestResolvePathsWithHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("CHAINSENSE_HOME", base)

	paths, err := ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, base, paths.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(base, "archive.db"), paths.Archive)

	require.NoError(t, paths.EnsureDirs())
	info, err := os.Stat(paths.Logs)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

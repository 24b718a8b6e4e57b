package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesStartSessionDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultTimeoutSec, cfg.DefaultTimeoutSec)
	assert.Equal(t, 12, cfg.DefaultMaxSteps)
	assert.Equal(t, 3, cfg.DefaultPatience)
	assert.InDelta(t, 0.95, cfg.DefaultPassThresh, 1e-9)
	assert.InDelta(t, DefaultEmaAlpha, cfg.DefaultEmaAlpha, 1e-9)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv(configEnvVar, filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileOverridesOnlySetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refineloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("httpPort: 9999\nweightTest: 0.8\n"), 0600))
	t.Setenv(configEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.InDelta(t, 0.8, cfg.WeightTest, 1e-9)
	assert.Equal(t, 12, cfg.DefaultMaxSteps)
}

func TestLoad_ExplicitFalseBooleanIsRespected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refineloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tokenAuthEnabled: true\n"), 0600))
	t.Setenv(configEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TokenAuthEnabled)
	assert.False(t, cfg.TracingEnabled)
}

func TestConfigPath_PrefersEnvVar(t *testing.T) {
	t.Setenv(configEnvVar, "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", ConfigPath())
}

func TestEnsureConfig_WritesDefaultsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refineloop.yaml")
	t.Setenv(configEnvVar, path)

	require.NoError(t, EnsureConfig())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "httpPort")

	require.NoError(t, os.WriteFile(path, []byte("httpPort: 1\n"), 0600))
	require.NoError(t, EnsureConfig())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "httpPort: 1\n", string(data))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{StreamPort: 8080, PushPort: 8081},
		Execution: ExecutionConfig{PythonBin: "python3", TimeoutSec: 60, InstallDeps: true},
		Artifacts: ArtifactsConfig{BaseDir: "/tmp/pybox", KeepLast: 5},
		Sessions:  SessionsConfig{MaxSessions: 256, IdleTimeoutSec: 1800},
		Logging:   LoggingConfig{Mode: "production", Level: "info"},
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		require.NoError(t, validConfig().validate())
	})

	t.Run("InvalidStreamPort", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.StreamPort = 0
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.stream_port")
	})

	t.Run("InvalidPushPort", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.PushPort = 70000
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.push_port")
	})

	t.Run("EmptyPythonBin", func(t *testing.T) {
		cfg := validConfig()
		cfg.Execution.PythonBin = ""
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "execution.python_bin")
	})

	t.Run("InvalidTimeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Execution.TimeoutSec = 0
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "execution.timeout_sec")
	})

	t.Run("EmptyBaseDir", func(t *testing.T) {
		cfg := validConfig()
		cfg.Artifacts.BaseDir = ""
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "artifacts.base_dir")
	})

	t.Run("InvalidKeepLast", func(t *testing.T) {
		cfg := validConfig()
		cfg.Artifacts.KeepLast = -1
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "artifacts.keep_last")
	})

	t.Run("InvalidMaxSessions", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sessions.MaxSessions = 0
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sessions.max_sessions")
	})

	t.Run("InvalidIdleTimeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sessions.IdleTimeoutSec = 0
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sessions.idle_timeout_sec")
	})
}

func TestNewWithDefaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.StreamPort)
	assert.Equal(t, 8081, cfg.Server.PushPort)
	assert.Equal(t, "python3", cfg.Execution.PythonBin)
	assert.Equal(t, 60, cfg.Execution.TimeoutSec)
	assert.True(t, cfg.Execution.InstallDeps)
	assert.Equal(t, 5, cfg.Artifacts.KeepLast)
	assert.Equal(t, 256, cfg.Sessions.MaxSessions)
	assert.Equal(t, "production", cfg.Logging.Mode)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestNewWithConfigFile(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	t.Chdir(dir)

	raw, err := yaml.Marshal(map[string]any{
		"server": map[string]any{
			"stream_port": 9090,
		},
		"execution": map[string]any{
			"python_bin":  "python3.12",
			"timeout_sec": 15,
		},
		"artifacts": map[string]any{
			"keep_last": 3,
		},
		"logging": map[string]any{
			"mode":  "development",
			"level": "debug",
		},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o644))

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.StreamPort)
	assert.Equal(t, "python3.12", cfg.Execution.PythonBin)
	assert.Equal(t, 15, cfg.Execution.TimeoutSec)
	assert.Equal(t, 3, cfg.Artifacts.KeepLast)
	assert.Equal(t, "development", cfg.Logging.Mode)
	// Untouched keys fall back to defaults
	assert.Equal(t, 8081, cfg.Server.PushPort)
}

func TestGetTimeouts(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "1m0s", cfg.GetTimeout().String())
	assert.Equal(t, "30m0s", cfg.GetIdleTimeout().String())
}

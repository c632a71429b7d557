package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds transport configuration
type ServerConfig struct {
	StreamPort int `mapstructure:"stream_port"`
	PushPort   int `mapstructure:"push_port"`
}

// ExecutionConfig holds execution engine configuration
type ExecutionConfig struct {
	PythonBin   string `mapstructure:"python_bin"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`
	InstallDeps bool   `mapstructure:"install_deps"`
}

// ArtifactsConfig holds artifact storage configuration
type ArtifactsConfig struct {
	BaseDir  string `mapstructure:"base_dir"`
	KeepLast int    `mapstructure:"keep_last"`
}

// SessionsConfig holds session registry limits
type SessionsConfig struct {
	MaxSessions    int `mapstructure:"max_sessions"`
	IdleTimeoutSec int `mapstructure:"idle_timeout_sec"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("server.stream_port", 8080)
	viper.SetDefault("server.push_port", 8081)
	viper.SetDefault("execution.python_bin", "python3")
	viper.SetDefault("execution.timeout_sec", 60)
	viper.SetDefault("execution.install_deps", true)
	viper.SetDefault("artifacts.base_dir", filepath.Join(os.TempDir(), "pybox"))
	viper.SetDefault("artifacts.keep_last", 5)
	viper.SetDefault("sessions.max_sessions", 256)
	viper.SetDefault("sessions.idle_timeout_sec", 1800)
	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.StreamPort <= 0 || c.Server.StreamPort > 65535 {
		return fmt.Errorf("invalid server.stream_port: %d", c.Server.StreamPort)
	}

	if c.Server.PushPort <= 0 || c.Server.PushPort > 65535 {
		return fmt.Errorf("invalid server.push_port: %d", c.Server.PushPort)
	}

	if c.Execution.PythonBin == "" {
		return fmt.Errorf("execution.python_bin must not be empty")
	}

	if c.Execution.TimeoutSec <= 0 {
		return fmt.Errorf("execution.timeout_sec must be positive, got: %d", c.Execution.TimeoutSec)
	}

	if c.Artifacts.BaseDir == "" {
		return fmt.Errorf("artifacts.base_dir must not be empty")
	}

	if c.Artifacts.KeepLast <= 0 {
		return fmt.Errorf("artifacts.keep_last must be positive, got: %d", c.Artifacts.KeepLast)
	}

	if c.Sessions.MaxSessions <= 0 {
		return fmt.Errorf("sessions.max_sessions must be positive, got: %d", c.Sessions.MaxSessions)
	}

	if c.Sessions.IdleTimeoutSec <= 0 {
		return fmt.Errorf("sessions.idle_timeout_sec must be positive, got: %d", c.Sessions.IdleTimeoutSec)
	}

	return nil
}

// GetTimeout returns the execution timeout as a duration
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Execution.TimeoutSec) * time.Second
}

// GetIdleTimeout returns the session idle timeout as a duration
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Sessions.IdleTimeoutSec) * time.Second
}

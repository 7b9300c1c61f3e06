package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds all agent configuration
type Config struct {
	// Collection
	StorageVolume   string        `mapstructure:"storage_volume"`    // "" = platform default
	WMIQueryTimeout time.Duration `mapstructure:"wmi_query_timeout"` // per management query

	// Async execution
	WorkerCount int `mapstructure:"worker_count"`
	QueueSize   int `mapstructure:"queue_size"`

	// HTTP surface
	ListenAddr string `mapstructure:"listen_addr"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // "json" or "console"
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		WMIQueryTimeout: 3 * time.Second,
		WorkerCount:     4,
		QueueSize:       64,
		ListenAddr:      "127.0.0.1:8317",
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Register every key with its default. AutomaticEnv only resolves
	// keys viper already knows, so without this DEVICEFABRIC_* variables
	// are never seen.
	viper.SetDefault("storage_volume", cfg.StorageVolume)
	viper.SetDefault("wmi_query_timeout", cfg.WMIQueryTimeout)
	viper.SetDefault("worker_count", cfg.WorkerCount)
	viper.SetDefault("queue_size", cfg.QueueSize)
	viper.SetDefault("listen_addr", cfg.ListenAddr)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("log_format", cfg.LogFormat)

	// Set config file locations
	viper.SetConfigName("devicefabric-agent")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(getConfigDir())
	viper.AddConfigPath(".")

	// Environment variable support
	viper.SetEnvPrefix("DEVICEFABRIC")
	viper.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	// Unmarshal into struct
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the agent cannot run with.
func (c *Config) Validate() error {
	if c.WMIQueryTimeout <= 0 {
		return fmt.Errorf("wmi_query_timeout must be positive, got %s", c.WMIQueryTimeout)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be at least 1, got %d", c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", c.QueueSize)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// getConfigDir returns the platform-specific config directory
func getConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "DeviceFabric", "Agent")
	case "darwin":
		return "/Library/Application Support/DeviceFabric/Agent"
	default: // Linux and others
		return "/etc/devicefabric-agent"
	}
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/afroash/hive-monitor/internal/influx"
)

// Config holds all configuration for the monitor daemon.
type Config struct {
	Scan     ScanSettings     `yaml:"scan"`
	Registry RegistrySettings `yaml:"registry"`
	Influx   InfluxSettings   `yaml:"influx"`
	Archive  ArchiveSettings  `yaml:"archive"`
	Stream   StreamSettings   `yaml:"stream"`
	Logging  LoggingSettings  `yaml:"logging"`
}

// ScanSettings controls the scanning loop.
type ScanSettings struct {
	// Window is how long each BLE scan cycle listens.
	Window time.Duration `yaml:"window"`
	// Pause is the wait between cycles.
	Pause time.Duration `yaml:"pause"`
	// Duration bounds the whole run; zero means run until interrupted.
	Duration time.Duration `yaml:"duration"`
}

// RegistrySettings locates the device identity file.
type RegistrySettings struct {
	// Path overrides the per-user default registry location.
	Path string `yaml:"path"`
}

// InfluxSettings enables the InfluxDB sink.
type InfluxSettings struct {
	Enabled       bool `yaml:"enabled"`
	influx.Config `yaml:",inline"`
}

// ArchiveSettings enables the local SQLite snapshot archive.
type ArchiveSettings struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// StreamSettings enables the WebSocket live stream.
type StreamSettings struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// LoggingSettings contains logging settings.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.OverrideFromEnv()
	return cfg
}

// Load reads configuration from a YAML file, then applies defaults,
// environment overrides and validation.
func Load(path string) (*Config, error) {
	yamlData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(yamlData, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	cfg.OverrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults sets default values for any unset fields.
func (c *Config) ApplyDefaults() {
	if c.Scan.Window == 0 {
		c.Scan.Window = 10 * time.Second
	}
	if c.Scan.Pause == 0 {
		c.Scan.Pause = 5 * time.Second
	}
	if c.Archive.Path == "" {
		c.Archive.Path = "./data/hive-monitor.db"
	}
	if c.Archive.RetentionDays == 0 {
		c.Archive.RetentionDays = 30
	}
	if c.Stream.ListenAddr == "" {
		c.Stream.ListenAddr = "localhost:8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Influx.ApplyDefaults()
}

// OverrideFromEnv overrides config values from environment variables.
// The INFLUXDB_* variables are handled by influx.Config.ApplyDefaults.
func (c *Config) OverrideFromEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HIVE_REGISTRY_PATH"); v != "" {
		c.Registry.Path = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Scan.Window < time.Second {
		return fmt.Errorf("scan window must be at least 1 second")
	}
	if c.Scan.Pause < 0 {
		return fmt.Errorf("scan pause must not be negative")
	}
	if c.Archive.Enabled && c.Archive.RetentionDays <= 0 {
		return fmt.Errorf("archive retention must be at least 1 day")
	}
	if c.Stream.Enabled && c.Stream.ListenAddr == "" {
		return fmt.Errorf("stream listen address is required")
	}
	if c.Influx.Enabled {
		if err := c.Influx.Validate(); err != nil {
			return err
		}
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	return nil
}

// NewLogger builds the root logger from the logging settings.
func (c *Config) NewLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if c.Logging.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

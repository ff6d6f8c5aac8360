package config

import (
	"fmt"
	"os"

	"devtimer/core"

	"gopkg.in/yaml.v3"
)

// Config is the host configuration for a timer machine
type Config struct {
	Timer   TimerConfig   `yaml:"timer"`
	Log     LogConfig     `yaml:"log"`
	Console ConsoleConfig `yaml:"console"`
	Metrics MetricsConfig `yaml:"metrics"`
	Demo    DemoConfig    `yaml:"demo"`
}

// TimerConfig sizes the timer subsystem
type TimerConfig struct {
	MaxSleepers int `yaml:"max_sleepers"`
}

// LogConfig controls zap output
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`        // Empty: console only
	MaxSizeMB  int    `yaml:"max_size_mb"` // Rotate after this size
	MaxBackups int    `yaml:"max_backups"`
	Console    bool   `yaml:"console"` // Also log to stderr when File is set
}

// ConsoleConfig selects where the diagnostic console lives
type ConsoleConfig struct {
	Device string `yaml:"device"` // Serial device, empty for stdio
	Baud   int    `yaml:"baud"`
}

// MetricsConfig enables the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr"` // Empty: disabled
}

// DemoConfig describes the sleeper threads spawned by "run"
type DemoConfig struct {
	Sleepers []SleeperConfig `yaml:"sleepers"`
}

// SleeperConfig is one demo thread
type SleeperConfig struct {
	Name  string `yaml:"name"`
	Ticks int64  `yaml:"ticks"`
}

// LoadConfig parses YAML configuration and applies defaults
func LoadConfig(data []byte) (*Config, error) {
	var cfg Config

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFile reads and parses a configuration file. An empty path yields the
// defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return LoadConfig(data)
}

// Default returns the default configuration
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Validate checks values defaults cannot repair
func (c *Config) Validate() error {
	if c.Timer.MaxSleepers < 1 {
		return fmt.Errorf("timer.max_sleepers must be positive, got %d", c.Timer.MaxSleepers)
	}
	if len(c.Demo.Sleepers) > c.Timer.MaxSleepers {
		return fmt.Errorf("demo has %d sleepers but timer.max_sleepers is %d",
			len(c.Demo.Sleepers), c.Timer.MaxSleepers)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	if cfg.Timer.MaxSleepers == 0 {
		cfg.Timer.MaxSleepers = core.DefaultMaxSleepers
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}

	if cfg.Console.Baud == 0 {
		cfg.Console.Baud = 115200
	}

	if len(cfg.Demo.Sleepers) == 0 {
		cfg.Demo.Sleepers = []SleeperConfig{
			{Name: "alpha", Ticks: 100},
			{Name: "beta", Ticks: 50},
			{Name: "gamma", Ticks: 75},
		}
	}
	for i := range cfg.Demo.Sleepers {
		if cfg.Demo.Sleepers[i].Name == "" {
			cfg.Demo.Sleepers[i].Name = fmt.Sprintf("sleeper-%d", i)
		}
	}
}

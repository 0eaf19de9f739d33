// Package config loads the daemon's TOML configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kaelos/devdeck/internal/logger"
	"github.com/kaelos/devdeck/internal/loglens"
)

// Defaults applied when the corresponding keys are absent.
const (
	DefaultListen            = ":4100"
	DefaultHealthInterval    = 5 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultLogBuffer         = 500
	DefaultOperationTTL      = 30 * time.Second
	DefaultErrorTTL          = 5 * time.Minute
)

// Stream limits for the health SSE endpoint.
const (
	MinHealthInterval = time.Second
	MaxHealthInterval = 60 * time.Second
)

// Config is the top-level TOML structure.
type Config struct {
	Listen   string         `toml:"listen" mapstructure:"listen"`
	BasePath string         `toml:"base_path" mapstructure:"base_path"`
	Project  string         `toml:"project" mapstructure:"project"`
	Upstream string         `toml:"upstream" mapstructure:"upstream"`
	History  string         `toml:"history" mapstructure:"history"`
	Log      logger.Config  `toml:"log" mapstructure:"log"`
	Classify loglens.Rules  `toml:"classify" mapstructure:"classify"`
	Palette  []string       `toml:"palette" mapstructure:"palette"`
	Stream   StreamConfig   `toml:"stream" mapstructure:"stream"`
	Registry RegistryConfig `toml:"registry" mapstructure:"registry"`
}

// StreamConfig tunes the push endpoints.
type StreamConfig struct {
	HealthInterval    time.Duration `toml:"health_interval" mapstructure:"health_interval"`
	HeartbeatInterval time.Duration `toml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
}

// RegistryConfig tunes the in-memory state store.
type RegistryConfig struct {
	LogBuffer    int           `toml:"log_buffer" mapstructure:"log_buffer"`
	OperationTTL time.Duration `toml:"operation_ttl" mapstructure:"operation_ttl"`
	ErrorTTL     time.Duration `toml:"error_ttl" mapstructure:"error_ttl"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

// Load reads a TOML config file and validates it. A missing path yields
// the defaults.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Stream.HealthInterval <= 0 {
		c.Stream.HealthInterval = DefaultHealthInterval
	}
	if c.Stream.HeartbeatInterval <= 0 {
		c.Stream.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Registry.LogBuffer <= 0 {
		c.Registry.LogBuffer = DefaultLogBuffer
	}
	if c.Registry.OperationTTL <= 0 {
		c.Registry.OperationTTL = DefaultOperationTTL
	}
	if c.Registry.ErrorTTL <= 0 {
		c.Registry.ErrorTTL = DefaultErrorTTL
	}
}

// Validate rejects values the server would choke on later. Classifier
// rules are compiled here once so a bad regex fails at startup, not on
// the first log line.
func (c *Config) Validate() error {
	if _, err := loglens.NewClassifier(c.Classify); err != nil {
		return fmt.Errorf("classify rules: %w", err)
	}
	for _, color := range c.Palette {
		if !validHexColor(color) {
			return fmt.Errorf("palette entry %q is not a #rrggbb color", color)
		}
	}
	if c.Stream.HealthInterval < MinHealthInterval || c.Stream.HealthInterval > MaxHealthInterval {
		return fmt.Errorf("stream.health_interval %s outside %s..%s",
			c.Stream.HealthInterval, MinHealthInterval, MaxHealthInterval)
	}
	if c.Upstream != "" && !strings.HasPrefix(c.Upstream, "http://") && !strings.HasPrefix(c.Upstream, "https://") {
		return fmt.Errorf("upstream %q must be an http(s) URL", c.Upstream)
	}
	return nil
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/chatrelay/chatrelay/internal/ailink"
)

// Config is the complete gateway configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Health    HealthConfig    `mapstructure:"health" yaml:"health"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors" yaml:"cors"`
	Admin     AdminConfig     `mapstructure:"admin" yaml:"admin"`
	AILink    ailink.Config   `mapstructure:"ailink" yaml:"ailink"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// MaxBodyBytes caps the chat request body.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the Prometheus exporter port; /metrics on the main port proxies it.
	Port int `mapstructure:"port" yaml:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// RateLimitConfig configures the process-wide rate governor.
type RateLimitConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// AdminConfig configures the optional admin signal endpoint.
type AdminConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port %d out of range", c.Metrics.Port)
	}
	if c.RateLimit.MinInterval < 0 {
		return fmt.Errorf("ratelimit.min_interval must not be negative")
	}
	if level := strings.ToLower(strings.TrimSpace(c.Logging.Level)); level != "" && !validLogLevels[level] {
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return c.AILink.Validate()
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	out := c
	out.AILink.Primary.APIKey = ailink.MaskKey(c.AILink.Primary.APIKey)
	out.AILink.Secondary.APIKey = ailink.MaskKey(c.AILink.Secondary.APIKey)
	if c.Admin.Token != "" {
		out.Admin.Token = "****"
	}
	out.CORS.AllowedOrigins = append([]string(nil), c.CORS.AllowedOrigins...)
	return out
}

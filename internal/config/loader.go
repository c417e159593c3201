// Package config loads gateway configuration from flags, environment,
// an optional YAML file and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/chatrelay/chatrelay/internal/ailink"
)

// EnvPrefix prefixes every environment override (CHATRELAY_SERVER_PORT, ...).
const EnvPrefix = "CHATRELAY"

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// legacyEnv maps config keys to the unprefixed variables the gateway has
// always honored. Prefixed names take precedence.
var legacyEnv = map[string][]string{
	"server.port":               {"PORT"},
	"ailink.primary.api_key":    {"OPENAI_API_KEY"},
	"ailink.secondary.api_key":  {"GEMINI_API_KEY"},
	"ailink.primary.base_url":   {"OPENAI_BASE_URL"},
	"ailink.secondary.base_url": {"GEMINI_BASE_URL"},
}

// SetDefaults registers every known key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 100<<10)

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)

	v.SetDefault("ratelimit.min_interval", "1s")

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("admin.token", "")

	v.SetDefault("ailink.degraded_message", ailink.DefaultDegradedMessage)

	v.SetDefault("ailink.primary.id", "openai")
	v.SetDefault("ailink.primary.ai_provider", "openai")
	v.SetDefault("ailink.primary.api_key", "")
	v.SetDefault("ailink.primary.base_url", "")
	v.SetDefault("ailink.primary.model", "gpt-3.5-turbo")
	v.SetDefault("ailink.primary.temperature", 0.7)
	v.SetDefault("ailink.primary.timeout", "60s")

	v.SetDefault("ailink.secondary.id", "gemini")
	v.SetDefault("ailink.secondary.ai_provider", "gemini")
	v.SetDefault("ailink.secondary.api_key", "")
	v.SetDefault("ailink.secondary.base_url", "")
	v.SetDefault("ailink.secondary.model", "gemini-2.0-flash")
	v.SetDefault("ailink.secondary.timeout", "60s")
}

// BindEnv enables CHATRELAY_* overrides for every key, plus the legacy names.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default (secondary temperature) are invisible to
	// Unmarshal unless bound explicitly.
	if err := v.BindEnv("ailink.secondary.temperature"); err != nil {
		return err
	}

	for key, names := range legacyEnv {
		args := append([]string{key, envName(key)}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// LoadDotEnv loads variables from the given .env files (default ".env").
// Missing files are skipped; existing process variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ReadFile reads the config file into v. A missing file is not an error.
func ReadFile(v *viper.Viper, configFile string) (string, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.chatrelay")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes and validates the configuration held by v and stores it as
// the current configuration.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToFloat64HookFunc(),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.CORS.AllowedOrigins = trimAll(cfg.CORS.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	setConfig(cfg)
	return cfg, nil
}

// New returns a viper instance with defaults and environment bindings applied.
func New() (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

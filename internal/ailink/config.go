package ailink

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDegradedMessage is returned when the secondary provider reports quota exhaustion.
const DefaultDegradedMessage = "I apologize, but the API quota has been exceeded. Please try again later or add billing information to your Gemini account."

// Config defines the fixed primary/secondary provider pair.
type Config struct {
	Primary   ProviderConfig `mapstructure:"primary" yaml:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary" yaml:"secondary"`

	// DegradedMessage is the canned reply for the quota-degraded branch.
	DegradedMessage string `mapstructure:"degraded_message" yaml:"degraded_message"`
}

// ProviderConfig configures a single provider slot.
type ProviderConfig struct {
	// ID is the public tag reported to callers (e.g. "gemini").
	ID string `mapstructure:"id" yaml:"id"`

	// AIProvider is the driver identifier: "openai" or "gemini".
	AIProvider string `mapstructure:"ai_provider" yaml:"ai_provider"`

	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Temperature *float64      `mapstructure:"temperature" yaml:"temperature,omitempty"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Validate checks that both slots name a known driver.
func (c Config) Validate() error {
	if err := c.Primary.validate("primary"); err != nil {
		return err
	}
	if err := c.Secondary.validate("secondary"); err != nil {
		return err
	}
	return nil
}

func (p ProviderConfig) validate(slot string) error {
	switch strings.ToLower(strings.TrimSpace(p.AIProvider)) {
	case "openai", "gemini":
	case "":
		return fmt.Errorf("ailink.%s.ai_provider is required", slot)
	default:
		return fmt.Errorf("ailink.%s.ai_provider %q is not supported", slot, p.AIProvider)
	}
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
		return fmt.Errorf("ailink.%s.temperature must be between 0 and 2", slot)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("ailink.%s.timeout must not be negative", slot)
	}
	return nil
}

// HasAPIKey reports whether a credential is configured.
func (p ProviderConfig) HasAPIKey() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// DisplayID returns ID, falling back to the driver name.
func (p ProviderConfig) DisplayID() string {
	if id := strings.TrimSpace(p.ID); id != "" {
		return id
	}
	return strings.ToLower(strings.TrimSpace(p.AIProvider))
}

// MaskKey returns a short, non-reversible hint of an API key.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return "****"
	default:
		return key[:3] + "…" + key[len(key)-4:]
	}
}

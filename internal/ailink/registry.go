package ailink

import (
	"fmt"
	"strings"

	"github.com/chatrelay/chatrelay/internal/ailink/driver"
	"github.com/chatrelay/chatrelay/internal/ailink/driver/gemini"
	"github.com/chatrelay/chatrelay/internal/ailink/driver/openai"
	"github.com/chatrelay/chatrelay/internal/core"
)

// NewDriver constructs the driver named by cfg.AIProvider.
func NewDriver(cfg ProviderConfig) (driver.Driver, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "openai":
		client := openai.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = cfg.Timeout
		return client, nil
	case "gemini":
		client := gemini.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = cfg.Timeout
		return client, nil
	case "":
		return nil, fmt.Errorf("ai_provider is required")
	default:
		return nil, fmt.Errorf("unsupported ai_provider %q", cfg.AIProvider)
	}
}

// DefaultModel returns the model used for a driver when none is configured.
func DefaultModel(aiProvider string) string {
	switch strings.ToLower(strings.TrimSpace(aiProvider)) {
	case "openai":
		return openai.DefaultModel
	case "gemini":
		return gemini.DefaultModel
	default:
		return ""
	}
}

// NewClient builds a provider client for the given slot.
func NewClient(role core.ProviderRole, cfg ProviderConfig) (*Client, error) {
	drv, err := NewDriver(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s provider: %w", role, err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel(cfg.AIProvider)
	}

	return &Client{
		ID:          cfg.DisplayID(),
		Role:        role,
		Driver:      drv,
		Model:       model,
		Temperature: cfg.Temperature,
	}, nil
}

// NewClients builds the primary and secondary clients.
func NewClients(cfg Config) (primary *Client, secondary *Client, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	primary, err = NewClient(core.RolePrimary, cfg.Primary)
	if err != nil {
		return nil, nil, err
	}
	secondary, err = NewClient(core.RoleSecondary, cfg.Secondary)
	if err != nil {
		return nil, nil, err
	}
	return primary, secondary, nil
}

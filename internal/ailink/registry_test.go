package ailink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/internal/ailink/driver/gemini"
	"github.com/chatrelay/chatrelay/internal/ailink/driver/openai"
	"github.com/chatrelay/chatrelay/internal/core"
)

func TestNewDriverSelectsImplementation(t *testing.T) {
	drv, err := NewDriver(ProviderConfig{AIProvider: "OpenAI", APIKey: "k", Timeout: 5 * time.Second})
	require.NoError(t, err)
	oa, ok := drv.(*openai.Client)
	require.True(t, ok)
	require.Equal(t, 5*time.Second, oa.Timeout)

	drv, err = NewDriver(ProviderConfig{AIProvider: "gemini", APIKey: "k", BaseURL: "http://local"})
	require.NoError(t, err)
	gm, ok := drv.(*gemini.Client)
	require.True(t, ok)
	require.Equal(t, "http://local", gm.BaseURL)
}

func TestNewDriverRejectsUnknown(t *testing.T) {
	_, err := NewDriver(ProviderConfig{AIProvider: "xai"})
	require.Error(t, err)

	_, err = NewDriver(ProviderConfig{})
	require.Error(t, err)
}

func TestNewClientAppliesDefaults(t *testing.T) {
	temp := 0.7
	client, err := NewClient(core.RolePrimary, ProviderConfig{AIProvider: "openai", Temperature: &temp})
	require.NoError(t, err)
	require.Equal(t, "openai", client.ID)
	require.Equal(t, openai.DefaultModel, client.Model)
	require.Equal(t, core.RolePrimary, client.Role)
	require.Equal(t, &temp, client.Temperature)
}

func TestConfigValidate(t *testing.T) {
	good := Config{
		Primary:   ProviderConfig{AIProvider: "openai"},
		Secondary: ProviderConfig{AIProvider: "gemini"},
	}
	require.NoError(t, good.Validate())

	bad := good
	bad.Secondary.AIProvider = ""
	require.ErrorContains(t, bad.Validate(), "ailink.secondary.ai_provider is required")

	hot := 3.0
	bad = good
	bad.Primary.Temperature = &hot
	require.ErrorContains(t, bad.Validate(), "temperature")
}

func TestMaskKey(t *testing.T) {
	require.Equal(t, "", MaskKey(" "))
	require.Equal(t, "****", MaskKey("short"))
	require.Equal(t, "sk-…cdef", MaskKey("sk-1234567890abcdef"))
}

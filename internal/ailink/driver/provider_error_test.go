package driver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProviderErrorParsesOpenAIShape(t *testing.T) {
	body := []byte(`{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`)
	perr := NewProviderError("openai", 429, body)

	require.Equal(t, "openai", perr.Provider)
	require.Equal(t, 429, perr.StatusCode)
	require.Equal(t, "insufficient_quota", perr.Code)
	require.Equal(t, "insufficient_quota", perr.Type)
	require.Equal(t, "You exceeded your current quota", perr.Message)
	require.Equal(t, body, perr.RawResponse)
}

func TestNewProviderErrorParsesGoogleShape(t *testing.T) {
	body := []byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`)
	perr := NewProviderError("gemini", 429, body)

	require.Equal(t, "429", perr.Code)
	require.Equal(t, "RESOURCE_EXHAUSTED", perr.Status)
	require.Equal(t, "Resource has been exhausted", perr.Message)
}

func TestNewProviderErrorKeepsPlainBody(t *testing.T) {
	perr := NewProviderError("openai", 502, []byte(" bad gateway \n"))

	require.Equal(t, "bad gateway", perr.Message)
	require.Empty(t, perr.Code)
	require.Contains(t, perr.Error(), "status 502")
}

func TestProviderErrorNilSafe(t *testing.T) {
	var perr *ProviderError
	require.Equal(t, "provider error", perr.Error())
}

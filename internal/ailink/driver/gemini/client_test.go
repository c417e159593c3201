package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/internal/ailink/content"
	"github.com/chatrelay/chatrelay/internal/ailink/driver"
)

func userRequest(text string) *driver.Request {
	return &driver.Request{
		Model:    DefaultModel,
		Messages: []content.Message{content.UserText(text)},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "gem-key")
	client.HTTPClient = server.Client()
	return client
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient("", " ")
	_, err := client.Complete(context.Background(), userRequest("hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClientSendsContentsAndParsesCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		require.Equal(t, "gem-key", r.URL.Query().Get("key"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"contents":[{"parts":[{"text":"Hello"}]}]}`, string(body))

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi from backup"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":2,"candidatesTokenCount":4,"totalTokenCount":6}}`))
	})

	resp, err := client.Complete(context.Background(), userRequest("Hello"))
	require.NoError(t, err)
	require.Equal(t, "Hi from backup", resp.Text())
	require.Equal(t, "STOP", resp.FinishReason)
	require.Equal(t, 6, resp.Usage.TotalTokens)
}

func TestClientSendsGenerationConfigWhenSet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		cfg, ok := payload["generationConfig"].(map[string]any)
		require.True(t, ok)
		require.InDelta(t, 0.2, cfg["temperature"], 1e-9)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	})

	req := userRequest("Hello")
	temp := 0.2
	req.Temperature = &temp
	_, err := client.Complete(context.Background(), req)
	require.NoError(t, err)
}

func TestClientEmptyCandidatesIsError(t *testing.T) {
	for name, body := range map[string]string{
		"missing":  `{}`,
		"empty":    `{"candidates":[]}`,
		"no parts": `{"candidates":[{"content":{"parts":[]}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := client.Complete(context.Background(), userRequest("Hello"))
			require.Error(t, err)
			require.True(t, errors.Is(err, driver.ErrEmptyResponse))
		})
	}
}

func TestClientSkipsThoughtParts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"thinking","thought":true},{"text":"answer"}]}}]}`))
	})
	resp, err := client.Complete(context.Background(), userRequest("Hello"))
	require.NoError(t, err)
	require.Equal(t, "answer", resp.Text())
}

func TestClientErrorsOnQuotaExhausted(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := client.Complete(context.Background(), userRequest("Hello"))
	var perr *driver.ProviderError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, "gemini", perr.Provider)
	require.Equal(t, "RESOURCE_EXHAUSTED", perr.Status)
}

func TestTransportErrorDoesNotLeakKey(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "super-secret")
	_, err := client.Complete(context.Background(), userRequest("Hello"))
	require.Error(t, err)
	require.NotContains(t, err.Error(), "super-secret")
}

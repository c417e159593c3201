package driver

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedactURL(t *testing.T) {
	got := RedactURL("https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent?key=secret")
	require.NotContains(t, got, "secret")
	require.Contains(t, got, "key=REDACTED")

	plain := "https://api.openai.com/v1/chat/completions"
	require.Equal(t, plain, RedactURL(plain))
}

func TestTraceCallWritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.ndjson")
	cleanup, err := EnableTracing(path)
	require.NoError(t, err)
	require.True(t, IsTracingEnabled())

	TraceCall("gemini", "POST", "https://example.test/x?key=abc", "gemini-2.0-flash",
		[]byte(`{"contents":[]}`), 500, []byte("not json"), errors.New("boom"), time.Now())
	cleanup()
	require.False(t, IsTracingEnabled())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck // test cleanup

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var entry TraceEntry
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	require.Equal(t, "gemini", entry.Driver)
	require.Equal(t, 500, entry.StatusCode)
	require.Equal(t, "boom", entry.Error)
	require.NotContains(t, entry.Endpoint, "abc")
	require.JSONEq(t, `{"contents":[]}`, string(entry.RequestBody))
	require.Nil(t, entry.Response)
	require.False(t, scanner.Scan())
}

func TestTraceWithoutTracerIsNoop(t *testing.T) {
	DisableTracing()
	require.NotPanics(t, func() {
		TraceCall("openai", "POST", "http://x", "m", nil, 200, nil, nil, time.Now())
	})
}

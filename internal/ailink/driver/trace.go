package driver

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"
)

// TraceEntry is one outbound provider call, written as a single NDJSON line.
type TraceEntry struct {
	Timestamp   time.Time       `json:"timestamp"`
	Driver      string          `json:"driver"`
	Endpoint    string          `json:"endpoint"`
	Method      string          `json:"method"`
	Model       string          `json:"model,omitempty"`
	RequestBody json.RawMessage `json:"request_body,omitempty"`
	StatusCode  int             `json:"status_code,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
}

// Tracer appends trace entries to a file.
type Tracer struct {
	mu   sync.Mutex
	file *os.File
}

var (
	tracerMu     sync.Mutex
	globalTracer *Tracer
)

// EnableTracing starts tracing outbound provider calls to path.
// The returned cleanup closes the file and disables tracing.
func EnableTracing(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}

	tracerMu.Lock()
	previous := globalTracer
	globalTracer = &Tracer{file: f}
	tracerMu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	return DisableTracing, nil
}

// DisableTracing stops tracing and closes the trace file.
func DisableTracing() {
	tracerMu.Lock()
	t := globalTracer
	globalTracer = nil
	tracerMu.Unlock()

	if t != nil {
		_ = t.Close()
	}
}

// IsTracingEnabled reports whether a trace file is open.
func IsTracingEnabled() bool {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	return globalTracer != nil
}

// Trace records an entry when tracing is enabled. Query-string credentials in
// the endpoint are redacted before writing.
func Trace(entry TraceEntry) {
	tracerMu.Lock()
	t := globalTracer
	tracerMu.Unlock()

	if t == nil {
		return
	}
	entry.Endpoint = RedactURL(entry.Endpoint)
	t.Write(entry)
}

// Write appends entry as one JSON line.
func (t *Tracer) Write(entry TraceEntry) {
	if t == nil || t.file == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.file.Write(data)
}

// Close closes the trace file.
func (t *Tracer) Close() error {
	if t == nil || t.file == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}

// RedactURL masks the "key" query parameter used by Google APIs.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	if q.Get("key") == "" {
		return raw
	}
	q.Set("key", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}

// rawJSON returns body as raw JSON when it is valid, nil otherwise.
func rawJSON(body []byte) json.RawMessage {
	if len(body) == 0 || !json.Valid(body) {
		return nil
	}
	return json.RawMessage(body)
}

// TraceCall is the helper drivers use to record a finished call.
func TraceCall(driverName, method, endpoint, model string, reqBody []byte, status int, respBody []byte, callErr error, started time.Time) {
	if !IsTracingEnabled() {
		return
	}
	entry := TraceEntry{
		Timestamp:   started.UTC(),
		Driver:      driverName,
		Endpoint:    endpoint,
		Method:      method,
		Model:       model,
		RequestBody: rawJSON(reqBody),
		StatusCode:  status,
		Response:    rawJSON(respBody),
		DurationMs:  time.Since(started).Milliseconds(),
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	Trace(entry)
}

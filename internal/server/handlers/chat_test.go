package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/internal/ailink"
	"github.com/chatrelay/chatrelay/internal/core"
	"github.com/chatrelay/chatrelay/internal/core/engine"
)

type fakeProvider struct {
	id    string
	text  string
	err   error
	calls int
}

func (f *fakeProvider) Complete(ctx context.Context, message string) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeProvider) ProviderID() string { return f.id }

type chatFixture struct {
	handler   *ChatHandler
	primary   *fakeProvider
	secondary *fakeProvider
	now       time.Time
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		primary:   &fakeProvider{id: "openai"},
		secondary: &fakeProvider{id: "gemini"},
		now:       time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	router := engine.NewRouter(engine.NewGovernor(time.Second), f.primary, f.secondary, "")
	f.handler = NewChatHandler(router)
	f.handler.Clock = func() time.Time { return f.now }
	return f
}

func (f *chatFixture) post(t *testing.T, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func failure(provider string, kind ailink.ErrorKind) error {
	return &ailink.ProviderError{Provider: provider, Kind: kind}
}

func TestChatPrimarySuccess(t *testing.T) {
	f := newChatFixture()
	f.primary.text = "Hi there"

	rec, body := f.post(t, `{"message":"Hello"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"response": "Hi there"}, body)
	assert.Equal(t, 0, f.secondary.calls)
}

func TestChatFailoverToSecondary(t *testing.T) {
	f := newChatFixture()
	f.primary.err = failure("openai", ailink.KindTransient)
	f.secondary.text = "Hi from backup"

	rec, body := f.post(t, `{"message":"Hello"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"response":   "Hi from backup",
		"isFailover": true,
		"provider":   "gemini",
	}, body)
}

func TestChatDegradedQuota(t *testing.T) {
	f := newChatFixture()
	f.primary.err = failure("openai", ailink.KindUnknown)
	f.secondary.err = failure("gemini", ailink.KindQuotaExceeded)

	rec, body := f.post(t, `{"message":"Hello"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"response":   ailink.DefaultDegradedMessage,
		"isFailover": true,
	}, body)
}

func TestChatAllProvidersFailed(t *testing.T) {
	f := newChatFixture()
	f.primary.err = failure("openai", ailink.KindTransient)
	f.secondary.err = failure("gemini", ailink.KindTransient)

	rec, body := f.post(t, `{"message":"Hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{
		"error":   MsgProvidersFailed,
		"details": DetailBothAPIsFailed,
	}, body)
}

func TestChatRateLimited(t *testing.T) {
	f := newChatFixture()
	f.primary.text = "Hi there"

	rec, _ := f.post(t, `{"message":"Hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	f.now = f.now.Add(200 * time.Millisecond)
	rec, body := f.post(t, `{"message":"Hello"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, map[string]any{
		"error":       MsgRateLimited,
		"isRateLimit": true,
	}, body)
	assert.Equal(t, 1, f.primary.calls)
	assert.Equal(t, 0, f.secondary.calls)
}

func TestChatMessageRequired(t *testing.T) {
	for name, payload := range map[string]string{
		"empty string": `{"message":""}`,
		"missing":      `{}`,
		"null":         `{"message":null}`,
		"empty body":   ``,
	} {
		t.Run(name, func(t *testing.T) {
			f := newChatFixture()
			rec, body := f.post(t, payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]any{"error": MsgMessageRequired}, body)
			assert.Equal(t, 0, f.primary.calls)
			assert.Equal(t, 0, f.secondary.calls)
		})
	}
}

func TestChatValidationDoesNotConsumeAdmission(t *testing.T) {
	f := newChatFixture()
	f.primary.text = "Hi there"

	rec, _ := f.post(t, `{"message":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.post(t, `{"message":"Hello"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatInvalidBody(t *testing.T) {
	f := newChatFixture()
	rec, body := f.post(t, `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"error": MsgInvalidBody}, body)

	rec, body = f.post(t, `{"message":42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"error": MsgInvalidBody}, body)
	assert.Equal(t, 0, f.primary.calls)
}

func TestChatBodyTooLarge(t *testing.T) {
	f := newChatFixture()
	f.handler.MaxBodyBytes = 64

	rec, body := f.post(t, `{"message":"`+strings.Repeat("a", 128)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"error": MsgInvalidBody}, body)
	assert.Equal(t, 0, f.primary.calls)
}

func TestChatWhitespaceMessageAccepted(t *testing.T) {
	f := newChatFixture()
	f.primary.text = "?"

	rec, _ := f.post(t, `{"message":"   "}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.primary.calls)
}

type stubRouter struct {
	result *core.CompletionResult
	err    error
	ctxErr error
}

func (s *stubRouter) Route(ctx context.Context, message string, now time.Time) (*core.CompletionResult, error) {
	s.ctxErr = ctx.Err()
	return s.result, s.err
}

func TestChatUnexpectedRouterError(t *testing.T) {
	handler := NewChatHandler(&stubRouter{err: errors.New("boom")})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"Hello"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Error communicating with AI services","details":"Unexpected error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestChatProviderCallSurvivesClientCancel(t *testing.T) {
	router := &stubRouter{result: &core.CompletionResult{Text: "ok", ServedBy: core.RolePrimary}}
	handler := NewChatHandler(router)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"Hello"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, router.ctxErr)
}

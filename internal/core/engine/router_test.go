package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/internal/ailink"
	"github.com/chatrelay/chatrelay/internal/core"
)

type stubClient struct {
	id    string
	text  string
	err   error
	calls []string
}

func (s *stubClient) Complete(ctx context.Context, message string) (string, error) {
	s.calls = append(s.calls, message)
	return s.text, s.err
}

func (s *stubClient) ProviderID() string { return s.id }

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func transientErr(provider string) error {
	return &ailink.ProviderError{Provider: provider, Kind: ailink.KindTransient, Detail: "503"}
}

func newTestRouter(primary, secondary *stubClient) *Router {
	return NewRouter(NewGovernor(time.Second), primary, secondary, "")
}

func TestRoutePrimarySuccess(t *testing.T) {
	primary := &stubClient{id: "openai", text: "Hi there"}
	secondary := &stubClient{id: "gemini", text: "unused"}
	router := newTestRouter(primary, secondary)

	result, err := router.Route(context.Background(), "Hello", t0)
	require.NoError(t, err)
	require.Equal(t, "Hi there", result.Text)
	require.Equal(t, core.RolePrimary, result.ServedBy)
	require.False(t, result.IsFailover())
	require.False(t, result.Degraded)
	require.Equal(t, []string{"Hello"}, primary.calls)
	require.Empty(t, secondary.calls)
}

func TestRouteFailoverToSecondary(t *testing.T) {
	primary := &stubClient{id: "openai", err: transientErr("openai")}
	secondary := &stubClient{id: "gemini", text: "Hi from backup"}
	router := newTestRouter(primary, secondary)

	result, err := router.Route(context.Background(), "Hello", t0)
	require.NoError(t, err)
	require.Equal(t, "Hi from backup", result.Text)
	require.True(t, result.IsFailover())
	require.Equal(t, "gemini", result.ProviderID)
	require.False(t, result.Degraded)
	require.Len(t, primary.calls, 1)
	require.Len(t, secondary.calls, 1)
}

func TestRoutePrimaryQuotaStillTriesSecondary(t *testing.T) {
	primary := &stubClient{id: "openai", err: &ailink.ProviderError{Provider: "openai", Kind: ailink.KindQuotaExceeded}}
	secondary := &stubClient{id: "gemini", text: "Hi from backup"}
	router := newTestRouter(primary, secondary)

	result, err := router.Route(context.Background(), "Hello", t0)
	require.NoError(t, err)
	require.Equal(t, "Hi from backup", result.Text)
	require.Len(t, secondary.calls, 1)
}

func TestRouteSecondaryQuotaDegrades(t *testing.T) {
	primary := &stubClient{id: "openai", err: transientErr("openai")}
	secondary := &stubClient{id: "gemini", err: &ailink.ProviderError{Provider: "gemini", Kind: ailink.KindQuotaExceeded}}
	router := newTestRouter(primary, secondary)

	result, err := router.Route(context.Background(), "Hello", t0)
	require.NoError(t, err)
	require.True(t, result.Degraded)
	require.True(t, result.IsFailover())
	require.Equal(t, ailink.DefaultDegradedMessage, result.Text)
}

func TestRouteCustomDegradedMessage(t *testing.T) {
	primary := &stubClient{id: "openai", err: transientErr("openai")}
	secondary := &stubClient{id: "gemini", err: &ailink.ProviderError{Provider: "gemini", Kind: ailink.KindQuotaExceeded}}
	router := NewRouter(NewGovernor(time.Second), primary, secondary, "Out of credit")

	result, err := router.Route(context.Background(), "Hello", t0)
	require.NoError(t, err)
	require.Equal(t, "Out of credit", result.Text)
}

func TestRouteAllProvidersFailed(t *testing.T) {
	primaryErr := transientErr("openai")
	secondaryErr := &ailink.ProviderError{Provider: "gemini", Kind: ailink.KindUnknown, Detail: "bad request"}
	primary := &stubClient{id: "openai", err: primaryErr}
	secondary := &stubClient{id: "gemini", err: secondaryErr}
	router := newTestRouter(primary, secondary)

	result, err := router.Route(context.Background(), "Hello", t0)
	require.Nil(t, result)

	var failed *AllProvidersFailedError
	require.True(t, errors.As(err, &failed))
	require.Equal(t, primaryErr, failed.Primary)
	require.Equal(t, secondaryErr, failed.Secondary)
	require.Len(t, primary.calls, 1)
	require.Len(t, secondary.calls, 1)
}

func TestRouteRateLimitedSkipsProviders(t *testing.T) {
	primary := &stubClient{id: "openai", text: "Hi there"}
	secondary := &stubClient{id: "gemini", text: "unused"}
	router := newTestRouter(primary, secondary)

	_, err := router.Route(context.Background(), "Hello", t0)
	require.NoError(t, err)

	_, err = router.Route(context.Background(), "Hello", t0.Add(200*time.Millisecond))
	require.ErrorIs(t, err, ErrRateLimited)
	require.Len(t, primary.calls, 1)
	require.Empty(t, secondary.calls)

	_, err = router.Route(context.Background(), "Hello again", t0.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, primary.calls, 2)
}

func TestRouteMissingSecondary(t *testing.T) {
	primary := &stubClient{id: "openai", err: transientErr("openai")}
	router := &Router{Governor: NewGovernor(time.Second), Primary: primary}

	_, err := router.Route(context.Background(), "Hello", t0)
	var failed *AllProvidersFailedError
	require.True(t, errors.As(err, &failed))
}

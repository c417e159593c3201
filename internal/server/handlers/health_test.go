package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/internal/ailink"
)

type stubChecker struct {
	err error
}

func (s stubChecker) CheckHealth(ctx context.Context) error {
	return s.err
}

func TestHealthHandlerReturnsHealthyStatus(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("ok", stubChecker{})

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, StatusHealthy, resp.Checks["ok"])
}

func TestHealthHandlerReportsDegraded(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("providers", stubChecker{err: fmt.Errorf("%w: no key", ErrDegraded)})

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusDegraded, resp.Checks["providers"])
}

func TestProbesReturnServiceUnavailableWhenUnhealthy(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("providers", stubChecker{err: errors.New("down")})

	probes := map[string]http.HandlerFunc{
		"aggregate": manager.HealthHandler,
		"live":      manager.LivenessHandler,
		"ready":     manager.ReadinessHandler,
		"startup":   manager.StartupHandler,
	}
	for name, handler := range probes {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusServiceUnavailable, rec.Code)

			var resp struct {
				Error struct {
					Code    string         `json:"code"`
					Details map[string]any `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)

			checks, ok := resp.Error.Details["checks"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, StatusUnhealthy, checks["providers"])
		})
	}
}

func TestProbeReturnsStatus(t *testing.T) {
	manager := NewHealthManager("dev")
	rec := httptest.NewRecorder()
	manager.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProbeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusHealthy, resp.Status)
}

func TestDetermineOverallStatusTreatsTimeoutAsDegraded(t *testing.T) {
	manager := NewHealthManager("dev")
	assert.Equal(t, StatusDegraded, manager.determineOverallStatus(map[string]string{"providers": StatusTimeout}))
	assert.Equal(t, StatusUnhealthy, manager.determineOverallStatus(map[string]string{
		"providers": StatusDegraded,
		"telemetry": StatusUnhealthy,
	}))
}

func TestRunHealthChecksAfterDeadline(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("providers", stubChecker{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checks := manager.runHealthChecks(ctx)
	assert.Equal(t, StatusTimeout, checks["providers"])
}

func TestProviderConfigChecker(t *testing.T) {
	cfg := ailink.Config{
		Primary:   ailink.ProviderConfig{AIProvider: "openai", APIKey: "sk-test"},
		Secondary: ailink.ProviderConfig{AIProvider: "gemini"},
	}
	err := ProviderConfigChecker(cfg).CheckHealth(context.Background())
	require.ErrorIs(t, err, ErrDegraded)
	assert.Contains(t, err.Error(), "secondary")

	cfg.Secondary.APIKey = "g-test"
	assert.NoError(t, ProviderConfigChecker(cfg).CheckHealth(context.Background()))

	cfg.Primary.AIProvider = "unknown"
	err = ProviderConfigChecker(cfg).CheckHealth(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDegraded)
}

func TestTelemetryChecker(t *testing.T) {
	assert.NoError(t, TelemetryChecker(false).CheckHealth(context.Background()))
}

package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatrelay/chatrelay/internal/ailink"
	"github.com/chatrelay/chatrelay/internal/observability"
)

// ProviderConfigChecker reports degraded when a provider slot has no API key.
// The gateway still serves in that state; calls to the slot fail and fail over.
func ProviderConfigChecker(cfg ailink.Config) HealthChecker {
	return HealthCheckFunc(func(ctx context.Context) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		var missing []string
		if !cfg.Primary.HasAPIKey() {
			missing = append(missing, "primary")
		}
		if !cfg.Secondary.HasAPIKey() {
			missing = append(missing, "secondary")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: missing api key for %s", ErrDegraded, strings.Join(missing, ", "))
		}
		return nil
	})
}

// TelemetryChecker reports degraded when metrics are enabled but no
// telemetry system is installed.
func TelemetryChecker(metricsEnabled bool) HealthChecker {
	return HealthCheckFunc(func(ctx context.Context) error {
		if metricsEnabled && !observability.MetricsEnabled() {
			return fmt.Errorf("%w: telemetry system not initialized", ErrDegraded)
		}
		return nil
	})
}

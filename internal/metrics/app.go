package metrics

import (
	"time"

	"github.com/chatrelay/chatrelay/internal/observability"
)

// Gateway metrics following Prometheus conventions
const (
	ChatRequestsTotal     = "chat_requests_total"
	ProviderCallsTotal    = "provider_calls_total"
	ProviderCallDuration  = "provider_call_duration_ms"
	FailoversTotal        = "failovers_total"
	RateLimitedTotal      = "rate_limited_total"
	HealthCheckTotal      = "app_health_check_total"
	HealthCheckDuration   = "app_health_check_duration_ms"
	ServerStartTimeSecond = "app_server_start_time_seconds"
)

// Chat outcomes used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeFailover    = "failover"
	OutcomeDegraded    = "degraded"
	OutcomeRateLimited = "rate_limited"
	OutcomeInvalid     = "invalid"
	OutcomeFailed      = "failed"
)

// RecordChatRequest counts a gateway request by outcome.
func RecordChatRequest(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ChatRequestsTotal,
			1,
			map[string]string{"outcome": outcome},
		)
	}
}

// RecordProviderCall records one provider invocation. kind is empty on success.
func RecordProviderCall(provider, role string, success bool, kind string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}
	if kind == "" {
		kind = "none"
	}

	_ = observability.TelemetrySystem.Counter(
		ProviderCallsTotal,
		1,
		map[string]string{
			"provider": provider,
			"role":     role,
			"status":   status,
			"kind":     kind,
		},
	)
	_ = observability.TelemetrySystem.Histogram(
		ProviderCallDuration,
		duration,
		map[string]string{
			"provider": provider,
			"role":     role,
		},
	)
}

// RecordFailover counts a switch from the primary to the secondary provider.
func RecordFailover() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(FailoversTotal, 1, nil)
	}
}

// RecordRateLimited counts a request rejected by the governor.
func RecordRateLimited() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(RateLimitedTotal, 1, nil)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTimeSecond,
			float64(timestamp),
			nil,
		)
	}
}

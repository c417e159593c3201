package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chatrelay/chatrelay/internal/ailink"
	"github.com/chatrelay/chatrelay/internal/core"
	"github.com/chatrelay/chatrelay/internal/metrics"
	"github.com/chatrelay/chatrelay/internal/observability"
)

// ErrRateLimited is returned when the governor rejects a request.
var ErrRateLimited = errors.New("rate limited")

// ProviderClient completes a single message against one provider.
type ProviderClient interface {
	Complete(ctx context.Context, message string) (string, error)
	ProviderID() string
}

// AllProvidersFailedError reports that both providers failed and the
// secondary failure was not a quota exhaustion.
type AllProvidersFailedError struct {
	Primary   error
	Secondary error
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed: primary: %v; secondary: %v", e.Primary, e.Secondary)
}

// Unwrap exposes both underlying failures to errors.Is/As.
func (e *AllProvidersFailedError) Unwrap() []error {
	return []error{e.Primary, e.Secondary}
}

// Router admits a request and runs the primary/secondary failover policy.
type Router struct {
	Governor        *Governor
	Primary         ProviderClient
	Secondary       ProviderClient
	DegradedMessage string
}

// NewRouter wires a router with the degraded message defaulted.
func NewRouter(governor *Governor, primary, secondary ProviderClient, degradedMessage string) *Router {
	if strings.TrimSpace(degradedMessage) == "" {
		degradedMessage = ailink.DefaultDegradedMessage
	}
	return &Router{
		Governor:        governor,
		Primary:         primary,
		Secondary:       secondary,
		DegradedMessage: degradedMessage,
	}
}

// Route admits the request at now and returns exactly one result or error.
// At most two provider calls are made, primary first.
func (r *Router) Route(ctx context.Context, message string, now time.Time) (*core.CompletionResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !r.Governor.Admit(now) {
		metrics.RecordRateLimited()
		return nil, ErrRateLimited
	}

	primaryErr := errNotConfigured(core.RolePrimary)
	if r.Primary != nil {
		text, err := r.Primary.Complete(ctx, message)
		if err == nil {
			return &core.CompletionResult{
				Text:       text,
				ServedBy:   core.RolePrimary,
				ProviderID: r.Primary.ProviderID(),
			}, nil
		}
		primaryErr = err
	}

	metrics.RecordFailover()
	logWarn("Primary provider failed, falling back to secondary", primaryErr)

	if r.Secondary == nil {
		secondaryErr := errNotConfigured(core.RoleSecondary)
		logAllFailed(primaryErr, secondaryErr)
		return nil, &AllProvidersFailedError{Primary: primaryErr, Secondary: secondaryErr}
	}

	text, secondaryErr := r.Secondary.Complete(ctx, message)
	if secondaryErr == nil {
		return &core.CompletionResult{
			Text:       text,
			ServedBy:   core.RoleSecondary,
			ProviderID: r.Secondary.ProviderID(),
		}, nil
	}

	if ailink.IsQuotaExceeded(secondaryErr) {
		logWarn("Secondary provider quota exceeded, using degraded response", secondaryErr)
		return &core.CompletionResult{
			Text:       r.degradedMessage(),
			ServedBy:   core.RoleSecondary,
			ProviderID: r.Secondary.ProviderID(),
			Degraded:   true,
		}, nil
	}

	logAllFailed(primaryErr, secondaryErr)
	return nil, &AllProvidersFailedError{Primary: primaryErr, Secondary: secondaryErr}
}

func (r *Router) degradedMessage() string {
	if strings.TrimSpace(r.DegradedMessage) == "" {
		return ailink.DefaultDegradedMessage
	}
	return r.DegradedMessage
}

func errNotConfigured(role core.ProviderRole) error {
	return &ailink.ProviderError{Provider: string(role), Kind: ailink.KindUnknown, Detail: "provider not configured"}
}

func logWarn(msg string, err error) {
	if logger := observability.ServerLogger; logger != nil {
		logger.Warn(msg, zap.Error(err))
	}
}

func logAllFailed(primaryErr, secondaryErr error) {
	if logger := observability.ServerLogger; logger != nil {
		logger.Error("All providers failed",
			zap.NamedError("primary_error", primaryErr),
			zap.NamedError("secondary_error", secondaryErr))
	}
}

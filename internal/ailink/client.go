package ailink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chatrelay/chatrelay/internal/ailink/content"
	"github.com/chatrelay/chatrelay/internal/ailink/driver"
	"github.com/chatrelay/chatrelay/internal/core"
	"github.com/chatrelay/chatrelay/internal/metrics"
	"github.com/chatrelay/chatrelay/internal/observability"
)

// Client sends single-message completions through a driver with a fixed
// model and sampling temperature, and normalizes every failure into a
// *ProviderError.
type Client struct {
	ID          string
	Role        core.ProviderRole
	Driver      driver.Driver
	Model       string
	Temperature *float64
}

// ProviderID returns the public provider tag.
func (c *Client) ProviderID() string {
	if c == nil {
		return ""
	}
	if id := strings.TrimSpace(c.ID); id != "" {
		return id
	}
	if c.Driver != nil {
		return c.Driver.Name()
	}
	return string(c.Role)
}

// Complete returns the provider's text for message.
func (c *Client) Complete(ctx context.Context, message string) (string, error) {
	id := c.ProviderID()
	if c == nil || c.Driver == nil {
		return "", &ProviderError{Provider: id, Kind: KindUnknown, Detail: "provider not configured"}
	}

	req := &driver.Request{
		Model:       c.Model,
		Messages:    []content.Message{content.UserText(message)},
		Temperature: c.Temperature,
	}

	started := time.Now()
	resp, err := c.Driver.Complete(ctx, req)
	elapsed := time.Since(started)
	if err != nil {
		perr := ClassifyError(id, err)
		metrics.RecordProviderCall(id, string(c.Role), false, string(perr.Kind), elapsed)
		if logger := observability.ServerLogger; logger != nil {
			logger.Debug("Provider call failed",
				zap.String("provider", id),
				zap.String("role", string(c.Role)),
				zap.String("kind", string(perr.Kind)),
				zap.Duration("duration", elapsed),
				zap.Error(err))
		}
		return "", perr
	}

	metrics.RecordProviderCall(id, string(c.Role), true, "", elapsed)
	return resp.Text(), nil
}

// String describes the client for diagnostics.
func (c *Client) String() string {
	if c == nil {
		return "<nil>"
	}
	driverName := ""
	if c.Driver != nil {
		driverName = c.Driver.Name()
	}
	return fmt.Sprintf("%s(%s/%s)", c.ProviderID(), driverName, c.Model)
}

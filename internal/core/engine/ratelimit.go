package engine

import (
	"sync"
	"time"

	"github.com/chatrelay/chatrelay/internal/core"
)

// DefaultMinInterval is the minimum spacing between accepted requests.
const DefaultMinInterval = time.Second

// Governor enforces a process-wide minimum interval between accepted requests.
//
// It behaves as a token bucket of size one with a fixed refill period: the
// limit applies to the aggregate call rate, not per caller.
type Governor struct {
	mu       sync.Mutex
	state    core.RateLimitState
	interval time.Duration
}

// NewGovernor returns a governor with the given interval (DefaultMinInterval if <= 0).
func NewGovernor(interval time.Duration) *Governor {
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	return &Governor{interval: interval}
}

// Admit reports whether a request arriving at now is accepted.
//
// Rejections leave the state untouched; an accepted call records now as the
// last accepted time before the lock is released.
func (g *Governor) Admit(now time.Time) bool {
	if g == nil {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	last := g.state.LastAcceptedAt
	if !last.IsZero() && now.Sub(last) < g.interval {
		return false
	}

	g.state.LastAcceptedAt = now
	return true
}

// Interval returns the configured minimum interval.
func (g *Governor) Interval() time.Duration {
	if g == nil {
		return 0
	}
	return g.interval
}

// State returns a snapshot of the admission clock.
func (g *Governor) State() core.RateLimitState {
	if g == nil {
		return core.RateLimitState{}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

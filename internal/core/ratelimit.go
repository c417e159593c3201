package core

import "time"

// RateLimitState captures the governor's admission clock.
//
// A zero LastAcceptedAt means no request has been accepted since boot.
type RateLimitState struct {
	LastAcceptedAt time.Time
}

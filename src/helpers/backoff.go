package helpers

import "time"

// -----------------------------------------------------------------------------
// Reconnection Backoff
// -----------------------------------------------------------------------------

// ReconnectDelay returns the delay before reconnect attempt n (1-based):
// min(base * n, max). Capped linear, not exponential: the feed tolerates
// frequent retries and a ceiling matters more than ramp-up shape.
func ReconnectDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base * time.Duration(attempt)
	if d > max {
		return max
	}
	return d
}

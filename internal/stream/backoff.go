package stream

import (
	"math"
	"time"
)

// backoffDelay returns the wait before reconnect attempt n (1-based):
// base, 2*base, 4*base, ... capped at max.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if d <= 0 || d > max {
		// Overflow collapses to the cap as well.
		d = max
	}
	return d
}

package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter serializes outbound API calls, allowing at most one call per
// fixed interval. Callers queue in arrival order; the mutex is held across
// the delay so a later caller can never pass an earlier one.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	lastCall time.Time
}

// NewRateLimiter creates a limiter that permits one call per interval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// Wait blocks until at least one interval has elapsed since the previous
// permitted call, then records the new call time. It only fails when ctx is
// cancelled while waiting.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastCall.IsZero() {
		if remaining := r.interval - time.Since(r.lastCall); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	r.lastCall = time.Now()
	return nil
}

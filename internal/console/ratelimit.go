package console

import (
	"sync"
	"time"
)

// RateLimiter is a token-bucket gate on console-originated writes. It is
// per-session, never shared globally (§5).
type RateLimiter struct {
	mu sync.Mutex

	capacity     float64
	refillPerSec float64

	tokens   float64
	lastFill time.Time
}

// NewRateLimiter builds a limiter with the given bucket capacity and
// refill rate (tokens per second). The bucket starts full.
func NewRateLimiter(capacity, refillPerSec float64, now time.Time) *RateLimiter {
	return &RateLimiter{
		capacity:     capacity,
		refillPerSec: refillPerSec,
		tokens:       capacity,
		lastFill:     now,
	}
}

// Allow reports whether a console write may proceed at time now,
// consuming one token if so. An exhausted bucket returns false without
// consuming a session tag.
func (r *RateLimiter) Allow(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := now.Sub(r.lastFill).Seconds()
	if elapsed > 0 {
		r.tokens += elapsed * r.refillPerSec
		if r.tokens > r.capacity {
			r.tokens = r.capacity
		}
		r.lastFill = now
	}

	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}

package connectors

import (
	"sync"
	"time"
)

// RateLimiter spaces out provider API calls. Per-message fetches against the
// Gmail API burn quota quickly without it.
type RateLimiter struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{
		interval: time.Second / time.Duration(requestsPerSecond),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// WaitTurn blocks until the caller's slot comes up. Safe for concurrent use;
// slots are handed out in lock-acquisition order.
func (r *RateLimiter) WaitTurn() {
	r.mu.Lock()
	now := r.now()
	slot := now
	if r.next.After(now) {
		slot = r.next
	}
	r.next = slot.Add(r.interval)
	r.mu.Unlock()

	if wait := slot.Sub(now); wait > 0 {
		r.sleep(wait)
	}
}

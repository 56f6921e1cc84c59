package core

import (
	"sync"
	"time"
)

// RateLimiter is a per-peer sliding-window admission gate. It deliberately
// does not use a token-bucket (golang.org/x/time/rate uses continuous
// refill, which would admit a call a few milliseconds before the window
// truly elapses); callers need the exact cutoff a log of timestamps gives.
type RateLimiter struct {
	mu           sync.Mutex
	maxRequests  int
	window       time.Duration
	calls        map[string][]time.Time
}

// NewRateLimiter builds a limiter admitting at most maxRequests calls per
// peer within window.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		calls:       make(map[string][]time.Time),
	}
}

// Allow prunes timestamps older than now-window for peerIP, rejects if the
// remaining count is already at maxRequests, otherwise records now and
// accepts.
func (r *RateLimiter) Allow(peerIP string) bool {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.window)
	kept := r.calls[peerIP][:0]
	for _, t := range r.calls[peerIP] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= r.maxRequests {
		r.calls[peerIP] = kept
		return false
	}

	r.calls[peerIP] = append(kept, now)
	return true
}

// Reset clears the call history for peerIP, or every peer when peerIP is
// empty.
func (r *RateLimiter) Reset(peerIP string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if peerIP == "" {
		r.calls = make(map[string][]time.Time)
		return
	}
	delete(r.calls, peerIP)
}

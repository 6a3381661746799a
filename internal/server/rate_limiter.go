package server

import (
	"sync"
	"time"

	"github.com/Mayne0963/otw-chi-sub000/internal/clock"
)

// rateLimiter is a fixed-window counter keyed by user. Submission is the
// only write path customers can hammer, so it gets the throttle. Reading
// time through Clock keeps window math testable.
type rateLimiter struct {
	limit  int
	window time.Duration
	clk    clock.Clock

	mu      sync.Mutex
	buckets map[string]*rateWindow
}

type rateWindow struct {
	start time.Time
	count int
}

func newRateLimiter(limit int, window time.Duration, clk clock.Clock) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		clk:     clk,
		buckets: make(map[string]*rateWindow),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	if key == "" {
		return false
	}

	now := r.clk.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.buckets[key]
	if bucket == nil {
		bucket = &rateWindow{start: now}
		r.buckets[key] = bucket
	} else if now.Sub(bucket.start) > r.window {
		bucket.start = now
		bucket.count = 0
	}

	if bucket.count >= r.limit {
		return false
	}
	bucket.count++
	return true
}

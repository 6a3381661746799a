package server

import (
	"sync"
	"testing"
	"time"
)

type stepClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

func TestRateLimiterFixedWindow(t *testing.T) {
	clk := &stepClock{at: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := newRateLimiter(2, time.Minute, clk)

	if !limiter.Allow("user_a") {
		t.Fatal("first call must pass")
	}
	if !limiter.Allow("user_a") {
		t.Fatal("second call must pass")
	}
	if limiter.Allow("user_a") {
		t.Fatal("third call in the same window must be rejected")
	}

	if !limiter.Allow("user_b") {
		t.Fatal("windows are per key")
	}

	clk.Advance(61 * time.Second)
	if !limiter.Allow("user_a") {
		t.Fatal("a fresh window must admit the key again")
	}
}

func TestRateLimiterRejectsEmptyKey(t *testing.T) {
	clk := &stepClock{at: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := newRateLimiter(5, time.Minute, clk)

	if limiter.Allow("") {
		t.Fatal("anonymous callers never pass the limiter")
	}
}

// Package ratelimit bounds the request rate against image hosts.
//
// The downloader is a burst workload: every eligible candidate on a
// results page is fetched at once. An optional per-minute limit
// spreads those bursts out. The zero configuration (no limiter, or a
// nil Limiter) applies no bound.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates outgoing requests.
type Limiter interface {
	// Allow reports whether a request may proceed immediately.
	Allow() bool
	// Wait blocks until the rate limit admits another request.
	Wait()
	// Reset restores the limiter to its initial state.
	Reset()
}

// tokenLimiter adapts golang.org/x/time/rate to the Limiter interface.
type tokenLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	rpm     int
}

// PerMinute returns a Limiter admitting up to n requests per minute.
// n <= 0 returns an unlimited limiter.
func PerMinute(n int) Limiter {
	if n <= 0 {
		return Unlimited()
	}
	return &tokenLimiter{
		limiter: newTokenBucket(n),
		rpm:     n,
	}
}

// Unlimited returns a Limiter that never blocks.
func Unlimited() Limiter {
	return &tokenLimiter{
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func newTokenBucket(rpm int) *rate.Limiter {
	// Bucket capacity equals the per-minute budget so a fresh run can
	// burst a whole page before throttling kicks in.
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
}

func (t *tokenLimiter) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limiter.Allow()
}

func (t *tokenLimiter) Wait() {
	t.mu.Lock()
	l := t.limiter
	t.mu.Unlock()

	r := l.Reserve()
	if !r.OK() {
		return
	}
	if d := r.Delay(); d > 0 {
		time.Sleep(d)
	}
}

func (t *tokenLimiter) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rpm > 0 {
		t.limiter = newTokenBucket(t.rpm)
	}
}

// Package ratelimit implements per-session packet throttling.
//
// SimpleRateLimiter is a lock-free token bucket: every field that changes on
// the hot path is touched only through atomic compare-and-swap, so a
// session's packet-handling goroutine never blocks another goroutine on a mutex just to
// decide whether to accept one more packet. This is a deliberate departure
// from golang.org/x/time/rate, whose Limiter serializes Allow/Reserve
// through an internal mutex — a fine default for general traffic shaping,
// but not the shape this hot path calls for. x/time/rate is used instead for
// the much colder room-creation-per-account limiter in internal/gameserver,
// where a mutex is a complete non-issue.
package ratelimit

import (
	"sync/atomic"
	"time"
)

// bucketState packs the token count and the last-refill timestamp into one
// word so both can be updated together with a single CAS, instead of
// racing two separate atomics against each other.
type bucketState struct {
	tokens     int64
	lastRefill int64 // unix nanos
}

// SimpleRateLimiter is a token bucket with capacity burst and refill rate
// tokensPerSec, implemented without locks.
type SimpleRateLimiter struct {
	capacity     int64
	tokensPerSec float64
	state        atomic.Pointer[bucketState]
	now          func() time.Time // overridable for tests
}

// NewSimpleRateLimiter builds a limiter starting at full capacity.
func NewSimpleRateLimiter(capacity int, tokensPerSec float64) *SimpleRateLimiter {
	l := &SimpleRateLimiter{
		capacity:     int64(capacity),
		tokensPerSec: tokensPerSec,
		now:          time.Now,
	}
	l.state.Store(&bucketState{tokens: int64(capacity), lastRefill: l.now().UnixNano()})
	return l
}

// Allow attempts to take one token. It refills the bucket based on elapsed
// wall-clock time and retries the CAS on contention, so it never blocks.
func (l *SimpleRateLimiter) Allow() bool {
	return l.AllowN(1)
}

// AllowN attempts to take n tokens atomically: either all n are deducted or
// none are, so a multi-cost operation never partially drains the bucket.
func (l *SimpleRateLimiter) AllowN(n int64) bool {
	for {
		old := l.state.Load()
		nowNanos := l.now().UnixNano()

		elapsed := float64(nowNanos-old.lastRefill) / float64(time.Second)
		added := int64(elapsed * l.tokensPerSec)
		lastRefill := old.lastRefill
		if added > 0 {
			lastRefill = nowNanos
		}
		refilled := old.tokens + added
		if refilled > l.capacity {
			refilled = l.capacity
		}

		if refilled < n {
			next := &bucketState{tokens: refilled, lastRefill: lastRefill}
			if l.state.CompareAndSwap(old, next) {
				return false
			}
			continue
		}

		next := &bucketState{tokens: refilled - n, lastRefill: lastRefill}
		if l.state.CompareAndSwap(old, next) {
			return true
		}
	}
}

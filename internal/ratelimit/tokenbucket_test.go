package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestAllowWithinCapacity(t *testing.T) {
	l := NewSimpleRateLimiter(5, 1)
	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("expected token %d to be allowed", i)
		}
	}
	if l.Allow() {
		t.Fatal("expected bucket to be exhausted")
	}
}

func TestRefillOverTime(t *testing.T) {
	l := NewSimpleRateLimiter(1, 10) // 10 tokens/sec
	if !l.Allow() {
		t.Fatal("expected initial token")
	}
	if l.Allow() {
		t.Fatal("expected bucket to be empty")
	}

	fake := time.Now().Add(200 * time.Millisecond)
	l.now = func() time.Time { return fake }

	if !l.Allow() {
		t.Fatal("expected refill after 200ms at 10/sec to allow another token")
	}
}

func TestAllowNIsAllOrNothing(t *testing.T) {
	l := NewSimpleRateLimiter(3, 0)
	if l.AllowN(4) {
		t.Fatal("expected request over capacity to be rejected")
	}
	if !l.AllowN(3) {
		t.Fatal("expected exact-capacity request to be allowed")
	}
	if l.AllowN(1) {
		t.Fatal("expected bucket to be empty after exact-capacity draw")
	}
}

func TestConcurrentAllowNeverOverdraws(t *testing.T) {
	l := NewSimpleRateLimiter(100, 0)
	var wg sync.WaitGroup
	var allowed int64
	var mu sync.Mutex

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 100 {
		t.Fatalf("expected exactly 100 allowed draws from a 100-token bucket with no refill, got %d", allowed)
	}
}

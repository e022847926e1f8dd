package service

import (
	"context"
	"sync"
	"time"
)

// LoginThrottle limits signup and login attempts per client key with a token
// bucket. It is safe for concurrent use.
type LoginThrottle struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens added per second
	capacity float64
	idleTTL  time.Duration
	now      func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewLoginThrottle creates a throttle allowing bursts of capacity attempts
// per key, refilled at rate per second. Buckets idle for longer than idleTTL
// are swept until ctx is done.
func NewLoginThrottle(ctx context.Context, rate, capacity float64, idleTTL time.Duration) *LoginThrottle {
	t := &LoginThrottle{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
	if idleTTL > 0 {
		go t.sweepLoop(ctx)
	}
	return t
}

// Allow reports whether key may make another attempt, consuming one token
// if so.
func (t *LoginThrottle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{tokens: t.capacity, last: now}
		t.buckets[key] = b
	}

	b.tokens = min(b.tokens+now.Sub(b.last).Seconds()*t.rate, t.capacity)
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Len returns the number of tracked keys.
func (t *LoginThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

// Sweep drops buckets untouched since idleTTL ago.
func (t *LoginThrottle) Sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.idleTTL)
	for key, b := range t.buckets {
		if b.last.Before(cutoff) {
			delete(t.buckets, key)
		}
	}
}

func (t *LoginThrottle) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(max(t.idleTTL/2, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}

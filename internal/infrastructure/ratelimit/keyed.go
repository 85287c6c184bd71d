// Package ratelimit provides per-key token buckets backed by golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key (client IP, email address).
// Buckets idle longer than the idle TTL are evicted by Cleanup.
type KeyedLimiter struct {
	mu      sync.Mutex
	buckets map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	nowFunc func() time.Time
}

// NewKeyedLimiter allows burst events at once and refills at limit per second
func NewKeyedLimiter(limit rate.Limit, burst int, idleTTL time.Duration) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &KeyedLimiter{
		buckets: make(map[string]*entry),
		limit:   limit,
		burst:   burst,
		idleTTL: idleTTL,
		nowFunc: time.Now,
	}
}

// Every returns a limiter granting one event per interval per key
func Every(interval time.Duration, burst int) *KeyedLimiter {
	return NewKeyedLimiter(rate.Every(interval), burst, 2*interval+time.Minute)
}

// Allow consumes a token for key if one is available
func (l *KeyedLimiter) Allow(key string) bool {
	now := l.nowFunc()
	return l.bucket(key, now).AllowN(now, 1)
}

// RetryAfter returns how long key must wait for the next token
func (l *KeyedLimiter) RetryAfter(key string) time.Duration {
	now := l.nowFunc()
	r := l.bucket(key, now).ReserveN(now, 1)
	if !r.OK() {
		return 0
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return d
}

// Reset forgets key, giving it a full bucket again
func (l *KeyedLimiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Cleanup evicts idle buckets and returns how many were removed
func (l *KeyedLimiter) Cleanup() int {
	cutoff := l.nowFunc().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked keys
func (l *KeyedLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RunCleanup evicts idle buckets every interval until ctx is done
func (l *KeyedLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}

func (l *KeyedLimiter) bucket(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

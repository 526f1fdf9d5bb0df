// Package ratelimit throttles unauthenticated auth calls per remote peer.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter keeps one token bucket per key. Buckets untouched for
// longer than the idle window are evicted by a background sweep.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*entry
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// DefaultIdle is how long an unused bucket survives.
const DefaultIdle = 10 * time.Minute

// New creates a limiter allowing rps requests per second with the given burst.
// A non-positive rps disables limiting.
func New(rps float64, burst int) *KeyedRateLimiter {
	krl := newLimiter(rps, burst, DefaultIdle, time.Now)
	go krl.sweep(DefaultIdle / 2)
	return krl
}

func newLimiter(rps float64, burst int, idle time.Duration, now func() time.Time) *KeyedRateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &KeyedRateLimiter{
		buckets: make(map[string]*entry),
		limit:   limit,
		burst:   burst,
		idle:    idle,
		now:     now,
		done:    make(chan struct{}),
	}
}

// Allow reports whether one more request for key fits in its bucket.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	krl.mu.Lock()
	e, ok := krl.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.buckets[key] = e
	}
	now := krl.now()
	e.lastSeen = now
	krl.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.buckets)
}

// Stop ends the background sweep. Safe to call more than once.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.evictIdle()
		}
	}
}

func (krl *KeyedRateLimiter) evictIdle() {
	cutoff := krl.now().Add(-krl.idle)

	krl.mu.Lock()
	defer krl.mu.Unlock()

	for k, e := range krl.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(krl.buckets, k)
		}
	}
}

package http

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces per-key (IP) request rate limits using token bucket.
// Limits can be changed at runtime with SetLimit.
type RateLimiter struct {
	limiters sync.Map // key → *limiterEntry

	mu    sync.RWMutex
	r     rate.Limit // refill rate (requests per second)
	burst int

	stop chan struct{}
	once sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// NewRateLimiter creates a rate limiter. rpm is requests per minute, burst
// the max burst allowed. rpm <= 0 disables limiting.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	rl := &RateLimiter{stop: make(chan struct{})}
	rl.r, rl.burst = limitFor(rpm, burst)
	go rl.cleanupLoop()
	return rl
}

func limitFor(rpm, burst int) (rate.Limit, int) {
	if burst <= 0 {
		burst = 5
	}
	if rpm <= 0 {
		return 0, burst
	}
	return rate.Limit(float64(rpm) / 60.0), burst
}

// SetLimit changes the limits for new and existing keys.
func (rl *RateLimiter) SetLimit(rpm, burst int) {
	r, b := limitFor(rpm, burst)
	rl.mu.Lock()
	rl.r, rl.burst = r, b
	rl.mu.Unlock()
	rl.limiters.Range(func(_, value any) bool {
		e := value.(*limiterEntry)
		e.limiter.SetLimit(r)
		e.limiter.SetBurst(b)
		return true
	})
	slog.Info("rate limit updated", "rpm", rpm, "burst", b)
}

// Allow reports whether a request from key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.RLock()
	r, burst := rl.r, rl.burst
	rl.mu.RUnlock()
	if r == 0 {
		return true
	}
	entry := rl.getOrCreate(key, r, burst)
	entry.lastSeen.Store(time.Now().UnixNano())
	if !entry.limiter.Allow() {
		slog.Warn("security.rate_limited", "key", key)
		return false
	}
	return true
}

// Enabled returns true if the rate limiter is active.
func (rl *RateLimiter) Enabled() bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.r > 0
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) getOrCreate(key string, r rate.Limit, burst int) *limiterEntry {
	if v, ok := rl.limiters.Load(key); ok {
		return v.(*limiterEntry)
	}
	entry := &limiterEntry{limiter: rate.NewLimiter(r, burst)}
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-10 * time.Minute))
		}
	}
}

func (rl *RateLimiter) cleanup(cutoff time.Time) {
	rl.limiters.Range(func(key, value any) bool {
		if value.(*limiterEntry).lastSeen.Load() < cutoff.UnixNano() {
			rl.limiters.Delete(key)
		}
		return true
	})
}

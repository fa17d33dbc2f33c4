package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Ayash-Bera/nearby/internal/metrics"
	"github.com/Ayash-Bera/nearby/pkg/utils"
	"github.com/gin-gonic/gin"
)

// RateLimiter is a per-client sliding window log: a client may have at most
// limit accepted requests in any window-long interval.
type RateLimiter struct {
	visitors map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
	cleanup  time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type RateLimiterOption func(*RateLimiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

func WithCleanupInterval(d time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.cleanup = d
	}
}

func NewRateLimiter(limit int, window time.Duration, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		cleanup:  time.Minute,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	go rl.cleanupVisitors()

	return rl
}

// Allow records a request from key if it fits in the window. When it does
// not, it returns how long until the oldest request leaves the window.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	hits := prune(rl.visitors[key], now.Add(-rl.window))
	if len(hits) >= rl.limit {
		rl.visitors[key] = hits
		return false, hits[0].Add(rl.window).Sub(now)
	}

	rl.visitors[key] = append(hits, now)
	return true, 0
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := rl.Allow(c.ClientIP())
		if !ok {
			metrics.RateLimited.Inc()
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			utils.AbortWithError(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Len reports how many clients are currently tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, hits := range rl.visitors {
		hits = prune(hits, cutoff)
		if len(hits) == 0 {
			delete(rl.visitors, key)
			continue
		}
		rl.visitors[key] = hits
	}
}

// prune drops timestamps at or before cutoff. hits is ordered oldest first.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0:0], hits[i:]...)
}

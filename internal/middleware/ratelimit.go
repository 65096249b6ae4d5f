package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-client request budget, keyed by client IP.
// Idle entries are evicted so the map does not grow without bound.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	limit    rate.Limit
	burst    int
	lastSeen time.Duration
}

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter builds a limiter allowing rpm requests per minute per
// client. A non-positive rpm disables limiting and returns nil.
func NewRateLimiter(rpm int) *RateLimiter {
	if rpm <= 0 {
		return nil
	}
	return &RateLimiter{
		clients:  make(map[string]*client),
		limit:    rate.Limit(float64(rpm) / 60.0),
		burst:    rpm,
		lastSeen: 3 * time.Minute,
	}
}

// Handler rejects over-budget requests with 429.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "rate_limited",
				"error_description": "Too many requests.",
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, ok := rl.clients[key]
	if !ok {
		rl.evictLocked(now)
		entry = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = entry
	}
	entry.seen = now

	return entry.limiter.Allow()
}

func (rl *RateLimiter) evictLocked(now time.Time) {
	for key, entry := range rl.clients {
		if now.Sub(entry.seen) > rl.lastSeen {
			delete(rl.clients, key)
		}
	}
}

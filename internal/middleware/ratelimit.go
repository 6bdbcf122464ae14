package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cbtarena/cbtarena-backend/internal/response"
)

const staleBucketAge = 3 * time.Minute

// RateLimiter is a per-IP token bucket guarding the login endpoints against
// credential stuffing when a whole class logs in at once.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	interval time.Duration
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter allows capacity requests per interval per client IP.
// It starts a background sweep that evicts idle buckets.
func NewRateLimiter(capacity int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		interval: interval,
	}
	go rl.sweep()
	return rl
}

// allow takes one token for ip, refilling first based on elapsed time.
func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		rl.buckets[ip] = &bucket{tokens: rl.capacity - 1, lastSeen: time.Now()}
		return true
	}

	if refill := int(time.Since(b.lastSeen)/rl.interval) * rl.capacity; refill > 0 {
		b.tokens += refill
		if b.tokens > rl.capacity {
			b.tokens = rl.capacity
		}
		b.lastSeen = time.Now()
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Middleware returns a Gin middleware that rate-limits requests by client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		for ip, b := range rl.buckets {
			if time.Since(b.lastSeen) > staleBucketAge {
				delete(rl.buckets, ip)
			}
		}
		rl.mu.Unlock()
	}
}

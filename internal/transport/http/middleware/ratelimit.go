package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ErlanBelekov/taskapi/internal/metrics"
)

const errTooManyRequests = "Too many requests."

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket.
// Idle entries are swept during calls, so no goroutine has to be stopped.
type RateLimiter struct {
	perMinute int
	limit     rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

// NewRateLimiter allows perMinute requests per client per minute, with the
// whole minute's allowance available as a burst.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		limit:     rate.Limit(float64(perMinute) / 60.0),
		burst:     perMinute,
		idle:      10 * time.Minute,
		now:       time.Now,
		clients:   make(map[string]*clientLimiter),
	}
}

// WithClock overrides the clock used for token refill and sweeping.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	return rl
}

func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > rl.idle {
		for k, cl := range rl.clients {
			if now.Sub(cl.lastSeen) > rl.idle {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Len reports how many clients are tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	// seconds until one token refills, rounded up
	retryAfter := strconv.Itoa((60 + rl.perMinute - 1) / rl.perMinute)
	return func(c *gin.Context) {
		if rl.allow(c.ClientIP()) {
			c.Next()
			return
		}
		metrics.RateLimitedTotal.WithLabelValues(c.FullPath()).Inc()
		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": errTooManyRequests})
	}
}

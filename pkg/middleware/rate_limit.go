package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiterConfig struct {
	// RequestsPerMinute allowed per client IP. Zero or less disables
	// the limiter.
	RequestsPerMinute int
	Burst             int
	CleanupInterval   time.Duration
	TTL               time.Duration
}

// RateLimiter tracks one token bucket per client IP
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter starts a limiter whose idle visitors are dropped until
// ctx is done
func NewRateLimiter(ctx context.Context, config RateLimiterConfig) *RateLimiter {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}

	rl := &RateLimiter{
		config:   config,
		visitors: make(map[string]*visitor),
	}

	if config.RequestsPerMinute > 0 {
		go rl.cleanupVisitors(ctx)
	}

	return rl
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		every := time.Minute / time.Duration(rl.config.RequestsPerMinute)
		limiter := rate.NewLimiter(rate.Every(every), rl.config.Burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) cleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > rl.config.TTL {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.RequestsPerMinute <= 0 {
			c.Next()
			return
		}

		if !rl.getVisitor(c.ClientIP()).Allow() {
			abort(c, http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}

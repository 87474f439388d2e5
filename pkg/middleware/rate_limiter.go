package middleware

import (
	"net/http"
	"sync"
	"time"

	"university-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterOptions configures the rate limiter
type RateLimiterOptions struct {
	// Limit defines requests per second
	Limit rate.Limit
	// Burst defines maximum burst size allowed
	Burst int
	// ExpiryDuration defines how long to keep client state in memory
	ExpiryDuration time.Duration
	// KeyFunc extracts the limiting key from a request (e.g. IP, user ID)
	KeyFunc func(*gin.Context) string
}

// DefaultRateLimiterOptions returns sensible defaults
func DefaultRateLimiterOptions() RateLimiterOptions {
	return RateLimiterOptions{
		Limit:          10,
		Burst:          20,
		ExpiryDuration: time.Hour,
		KeyFunc: func(c *gin.Context) string {
			// Prefer the authenticated identity, fall back to client IP
			if userID := c.GetString("userId"); userID != "" {
				return userID
			}
			return c.ClientIP()
		},
	}
}

// visitor tracks per-key limiter state
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements rate limiting middleware for Gin
type RateLimiter struct {
	mu       sync.Mutex
	options  RateLimiterOptions
	visitors map[string]*visitor
	log      *logger.Logger
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(log *logger.Logger, options ...RateLimiterOptions) *RateLimiter {
	opts := DefaultRateLimiterOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	rl := &RateLimiter{
		options:  opts,
		visitors: make(map[string]*visitor),
		log:      log,
	}

	go rl.cleanup()

	return rl
}

// Middleware returns a Gin middleware for rate limiting
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := r.options.KeyFunc(c)

		if !r.limiterFor(key).Allow() {
			r.log.Warn("rate limit exceeded", "key", key, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"code":    http.StatusTooManyRequests,
				"detail":  "Too many requests",
			})
			return
		}

		c.Next()
	}
}

func (r *RateLimiter) limiterFor(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, exists := r.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(r.options.Limit, r.options.Burst)}
		r.visitors[key] = v
	}
	v.lastSeen = time.Now()

	return v.limiter
}

// cleanup periodically removes stale limiter entries
func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		for key, v := range r.visitors {
			if time.Since(v.lastSeen) > r.options.ExpiryDuration {
				delete(r.visitors, key)
			}
		}
		r.mu.Unlock()
	}
}

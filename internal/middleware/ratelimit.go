package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/qpaper-backend/internal/config"
	"github.com/stemsi/qpaper-backend/internal/response"
)

// RateLimiter limits requests per client IP. With a Redis client the
// budget is a fixed window shared by every server instance; without one,
// or while Redis is unreachable, each instance keeps a local token bucket.
type RateLimiter struct {
	scope    string
	rate     int           // Tokens per interval
	interval time.Duration // Refill interval
	rdb      *redis.Client
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter (e.g., 10 requests per minute).
// rdb may be nil.
func NewRateLimiter(scope string, rate int, interval time.Duration, rdb *redis.Client, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		scope:    scope,
		rate:     rate,
		interval: interval,
		rdb:      rdb,
		log:      log.With().Str("component", "rate_limiter").Str("scope", scope).Logger(),
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Run evicts idle visitors until ctx is cancelled.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 {
			c.Next()
			return
		}
		if !rl.allow(c.Request.Context(), c.ClientIP()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, ip string) bool {
	if rl.rdb != nil {
		ok, err := rl.allowShared(ctx, ip)
		if err == nil {
			return ok
		}
		rl.log.Warn().Err(err).Msg("Shared rate limit unavailable, using local bucket")
	}
	return rl.allowLocal(ip)
}

func (rl *RateLimiter) allowShared(ctx context.Context, ip string) (bool, error) {
	window := rl.now().UnixNano() / int64(rl.interval)
	key := config.CacheKey.RateLimitKey(rl.scope, ip, window)

	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.interval)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(rl.rate), nil
}

func (rl *RateLimiter) allowLocal(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{tokens: rl.rate, lastSeen: now}
		rl.visitors[ip] = v
	}

	// Refill tokens based on elapsed time.
	refill := int(now.Sub(v.lastSeen)/rl.interval) * rl.rate
	if refill > 0 {
		v.tokens = min(v.tokens+refill, rl.rate)
		v.lastSeen = now
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if rl.now().Sub(v.lastSeen) > 3*rl.interval {
			delete(rl.visitors, ip)
		}
	}
}

package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	pkgredis "github.com/ShubhamMishra2526/Travease-App/pkg/redis"
	"github.com/ShubhamMishra2526/Travease-App/pkg/telemetry"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// Maximum requests per window per client IP (0 = unlimited)
	MaxRequests int
	// Window duration for the fixed window counter
	Window time.Duration
	// Whether to use Redis for distributed rate limiting
	UseRedis bool
	// Redis client (required if UseRedis is true)
	RedisClient *pkgredis.Client
	// Key prefix for Redis
	KeyPrefix string
	// Cleanup interval for local rate limiter
	CleanupInterval time.Duration
	// Clock override, used by tests (defaults to time.Now)
	Now func() time.Time
}

// DefaultRateLimitConfig returns sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests:     100,
		Window:          time.Hour,
		KeyPrefix:       "ratelimit:",
		CleanupInterval: time.Minute,
	}
}

// rateLimitEntry tracks the fixed window state for one client.
type rateLimitEntry struct {
	count       int
	windowStart time.Time
	mu          sync.Mutex
}

// LocalRateLimiter implements in-memory fixed window rate limiting.
// Each client gets a counter that resets when its window elapses.
type LocalRateLimiter struct {
	config  RateLimitConfig
	now     func() time.Time
	entries sync.Map
	stop    chan struct{}
}

// NewLocalRateLimiter creates a new local rate limiter and starts its
// cleanup goroutine.
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	rl := &LocalRateLimiter{
		config: config,
		now:    now,
		stop:   make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go rl.cleanup()
	}

	return rl
}

// Allow checks if a request should be allowed. It returns the remaining
// quota in the current window and, when denied, the time until the
// window resets.
func (rl *LocalRateLimiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	now := rl.now()

	entry, _ := rl.entries.LoadOrStore(key, &rateLimitEntry{windowStart: now})
	e := entry.(*rateLimitEntry)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Reset the counter when the window has elapsed
	if now.Sub(e.windowStart) >= rl.config.Window {
		e.count = 0
		e.windowStart = now
	}

	if e.count >= rl.config.MaxRequests {
		return false, 0, e.windowStart.Add(rl.config.Window).Sub(now)
	}

	e.count++
	return true, rl.config.MaxRequests - e.count, 0
}

// cleanup periodically removes entries whose window has long expired.
func (rl *LocalRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := rl.now().Add(-2 * rl.config.Window)
			rl.entries.Range(func(key, value interface{}) bool {
				e := value.(*rateLimitEntry)
				e.mu.Lock()
				if e.windowStart.Before(cutoff) {
					rl.entries.Delete(key)
				}
				e.mu.Unlock()
				return true
			})
		case <-rl.stop:
			return
		}
	}
}

// Stop stops the cleanup goroutine.
func (rl *LocalRateLimiter) Stop() {
	close(rl.stop)
}

// RedisRateLimiter implements Redis-based distributed fixed window rate
// limiting. The counter key carries the window number so counters from
// expired windows are never reused.
type RedisRateLimiter struct {
	config RateLimitConfig
	now    func() time.Time
	script string
}

// NewRedisRateLimiter creates a new Redis rate limiter.
func NewRedisRateLimiter(config RateLimitConfig) *RedisRateLimiter {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	// Lua script for atomic fixed window counting
	script := `
local key = KEYS[1]
local max = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local count = redis.call("INCR", key)
if count == 1 then
    redis.call("EXPIRE", key, ttl)
end

if count > max then
    return {0, 0}
end
return {1, max - count}
`
	return &RedisRateLimiter{
		config: config,
		now:    now,
		script: script,
	}
}

// Allow checks if a request should be allowed using Redis.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (allowed bool, remaining int, retryAfter time.Duration, err error) {
	now := rl.now()
	windowSeconds := int64(rl.config.Window / time.Second)
	window := now.Unix() / windowSeconds
	redisKey := rl.config.KeyPrefix + key + ":" + strconv.FormatInt(window, 10)

	result := rl.config.RedisClient.Eval(ctx, rl.script,
		[]string{redisKey},
		rl.config.MaxRequests,
		windowSeconds,
	)
	if result.Err() != nil {
		return false, 0, 0, result.Err()
	}

	values, err := result.Slice()
	if err != nil || len(values) < 2 {
		return false, 0, 0, err
	}

	ok, _ := values[0].(int64)
	left, _ := values[1].(int64)

	if ok != 1 {
		windowEnd := time.Unix((window+1)*windowSeconds, 0)
		return false, 0, windowEnd.Sub(now), nil
	}
	return true, int(left), 0, nil
}

// RateLimiter creates a rate limiting middleware keyed by client IP.
// Denied requests get a 429 with a Retry-After header for the time
// remaining in the current window.
func RateLimiter(config RateLimitConfig) gin.HandlerFunc {
	var localLimiter *LocalRateLimiter
	var redisLimiter *RedisRateLimiter

	if config.UseRedis && config.RedisClient != nil {
		redisLimiter = NewRedisRateLimiter(config)
	} else {
		localLimiter = NewLocalRateLimiter(config)
	}

	return func(c *gin.Context) {
		if config.MaxRequests <= 0 {
			c.Next()
			return
		}

		ctx, span := telemetry.StartSpan(c.Request.Context(), "middleware.rate_limiter")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		clientIP := c.ClientIP()
		span.SetAttributes(attribute.String("client_ip", clientIP))

		var allowed bool
		var remaining int
		var retryAfter time.Duration

		if redisLimiter != nil {
			var err error
			allowed, remaining, retryAfter, err = redisLimiter.Allow(ctx, clientIP)
			if err != nil {
				// Fail open on Redis errors
				allowed = true
				remaining = config.MaxRequests
			}
		} else {
			allowed, remaining, retryAfter = localLimiter.Allow(clientIP)
		}

		span.SetAttributes(attribute.Bool("allowed", allowed))

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			span.SetStatus(codes.Error, "rate limit exceeded")

			seconds := int(retryAfter / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))

			_ = c.Error(apperror.New(http.StatusTooManyRequests,
				"Too many requests from this IP, please try again in an hour!"))
			c.Abort()
			return
		}

		span.SetStatus(codes.Ok, "")
		c.Next()
	}
}

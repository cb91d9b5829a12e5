package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRateLimiterFixedWindow(t *testing.T) {
	now := time.Now()
	cfg := DefaultRateLimitConfig()
	cfg.MaxRequests = 3
	cfg.Window = time.Minute
	cfg.CleanupInterval = 0
	cfg.Now = func() time.Time { return now }

	rl := NewLocalRateLimiter(cfg)

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := rl.Allow("1.2.3.4")
		require.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, _, retryAfter := rl.Allow("1.2.3.4")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)

	// A different client has its own counter
	allowed, _, _ = rl.Allow("5.6.7.8")
	assert.True(t, allowed)

	// The counter resets once the window elapses
	now = now.Add(time.Minute)
	allowed, remaining, _ := rl.Allow("1.2.3.4")
	assert.True(t, allowed)
	assert.Equal(t, 2, remaining)
}

func TestLocalRateLimiterRetryAfterShrinks(t *testing.T) {
	now := time.Now()
	cfg := DefaultRateLimitConfig()
	cfg.MaxRequests = 1
	cfg.Window = time.Minute
	cfg.CleanupInterval = 0
	cfg.Now = func() time.Time { return now }

	rl := NewLocalRateLimiter(cfg)
	allowed, _, _ := rl.Allow("c")
	require.True(t, allowed)

	now = now.Add(40 * time.Second)
	allowed, _, retryAfter := rl.Allow("c")
	assert.False(t, allowed)
	assert.Equal(t, 20*time.Second, retryAfter)
}

func rateLimitTestRouter(cfg RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(ErrorHandlerConfig{}))
	r.Use(RateLimiter(cfg))
	r.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})
	return r
}

func TestRateLimiterMiddleware(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.MaxRequests = 2
	cfg.Window = time.Hour
	cfg.CleanupInterval = 0

	r := rateLimitTestRouter(cfg)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests from this IP, please try again in an hour!")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiterDisabledWhenZero(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.MaxRequests = 0
	cfg.CleanupInterval = 0

	r := rateLimitTestRouter(cfg)

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

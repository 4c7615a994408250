// Package httpmiddleware holds transport-level middlewares shared by the API.
package httpmiddleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a request keyed by client IP may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// GinMiddleware returns a gin handler enforcing per-IP limits.
func GinMiddleware(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.Allow(c.Request.Context(), ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

// RedisFixedWindow counts requests per key in one-minute windows. Shared
// across replicas since the counter lives in Redis.
type RedisFixedWindow struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisFixedWindow creates a limiter allowing perMinute requests per key.
func NewRedisFixedWindow(client *redis.Client, perMinute int) *RedisFixedWindow {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RedisFixedWindow{client: client, limit: perMinute, window: time.Minute}
}

// Allow increments the window counter and compares against the limit. Fails
// open when Redis is unreachable so an outage does not take the API down.
func (l *RedisFixedWindow) Allow(ctx context.Context, key string) bool {
	bucket := "ratelimit:" + key + ":" + time.Now().UTC().Format("200601021504")
	n, err := l.client.Incr(ctx, bucket).Result()
	if err != nil {
		return true
	}
	if n == 1 {
		l.client.Expire(ctx, bucket, l.window+time.Second)
	}
	return n <= int64(l.limit)
}

// TokenBucket is an in-memory fallback for single-instance deployments and
// tests.
type TokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates a limiter with capacity tokens refilled at rate per
// minute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
	}
}

// Allow consumes a token for the key if one is available.
func (l *TokenBucket) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := time.Now()
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

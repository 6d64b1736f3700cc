package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voiceboard/voiceboard/internal/request"
)

// DefaultRateLimit is the fallback requests-per-minute cap
const DefaultRateLimit = 100

// RedisRateLimiter wraps Redis client for rate limiting
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter creates a new Redis-backed rate limiter
func NewRedisRateLimiter(redisURL string) (*RedisRateLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRateLimiter{client: client}, nil
}

// Close closes the Redis connection
func (r *RedisRateLimiter) Close() error {
	return r.client.Close()
}

// Client exposes the underlying Redis client.
func (r *RedisRateLimiter) Client() *redis.Client {
	return r.client
}

// Ping checks if Redis is reachable
func (r *RedisRateLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// redisLimitCounter counts requests per client over a sliding window
type redisLimitCounter struct {
	client *redis.Client
	key    string
	window time.Duration
}

// Increment increments the counter and returns the new count
func (c *redisLimitCounter) Increment(ctx context.Context) (int, error) {
	now := time.Now()
	windowStart := now.Truncate(c.window)

	key := fmt.Sprintf("%s:%d", c.key, windowStart.Unix())

	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, c.window+time.Second)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, err
	}

	count := int(incr.Val())

	// Weight the previous window's count by how much of it still
	// overlaps the sliding window.
	prevWindowStart := windowStart.Add(-c.window)
	prevKey := fmt.Sprintf("%s:%d", c.key, prevWindowStart.Unix())
	prevCount := c.client.Get(ctx, prevKey).Val()
	if prevCount != "" {
		elapsed := now.Sub(windowStart)
		var prevWindowCount int
		if _, err := fmt.Sscanf(prevCount, "%d", &prevWindowCount); err == nil && prevWindowCount > 0 {
			remainingRatio := float64(c.window-elapsed) / float64(c.window)
			count += int(float64(prevWindowCount) * remainingRatio)
		}
	}

	return count, nil
}

// RateLimit creates per-client-IP rate limiting middleware using Redis.
// Used as a tighter cap on the assistant routes, on top of the global
// request limit.
func RateLimit(redisLimiter *RedisRateLimiter, requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRateLimit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			counter := &redisLimitCounter{
				client: redisLimiter.client,
				key:    fmt.Sprintf("ratelimit:%s", request.ClientIP(r)),
				window: time.Minute,
			}

			count, err := counter.Increment(r.Context())
			if err != nil {
				// On Redis error, fail open for availability.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", requestsPerMinute))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", max(0, requestsPerMinute-count)))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Minute).Unix()))

			if count > requestsPerMinute {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

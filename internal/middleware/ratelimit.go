// ratelimit.go implements per-IP rate limiting over Redis using a sliding
// window of timestamps in a sorted set. Redis keeps the counters shared
// across replicas, unlike an in-process map. Applied to the credential
// endpoints (login, register, refresh) to slow brute-force attempts.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tasknest/tasknest/internal/apperror"
)

// slidingWindowScript atomically trims expired entries, counts the window,
// and records the request if under the limit. Runs as a single Lua script so
// concurrent requests cannot race between the count and the add.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)
	if current >= limit then
		return 0
	end

	local counter = redis.call('INCR', key .. ':seq')
	redis.call('ZADD', key, now, now .. ':' .. counter)
	local expire_seconds = math.ceil(window_ms / 1000)
	redis.call('EXPIRE', key, expire_seconds)
	redis.call('EXPIRE', key .. ':seq', expire_seconds)
	return 1
`)

// RateLimiter checks per-key request budgets against Redis.
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter creates a rate limiter backed by the given Redis client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow reports whether one more request under the given key fits within
// limit requests per window.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	res, err := slidingWindowScript.Run(ctx, rl.client,
		[]string{"ratelimit:" + key},
		now.UnixMilli(),
		now.Add(-window).UnixMilli(),
		limit,
		window.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Limit returns middleware that limits requests per client IP to maxRequests
// within the given window. The name scopes the counter so different endpoint
// groups get independent budgets. Returns 429 when exceeded.
//
// Fails open: if Redis is unreachable the request proceeds. Losing rate
// limiting briefly is better than rejecting all logins during a Redis blip.
func (rl *RateLimiter) Limit(name string, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := name + ":" + c.RealIP()

			allowed, err := rl.Allow(c.Request().Context(), key, maxRequests, window)
			if err != nil {
				slog.Warn("rate limit check failed",
					slog.String("key", key),
					slog.Any("error", err),
				)
				return next(c)
			}

			if !allowed {
				return &apperror.AppError{
					Status:  http.StatusTooManyRequests,
					Code:    "RATE_LIMITED",
					Message: "Rate limit exceeded. Please try again later.",
				}
			}

			return next(c)
		}
	}
}

package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"todo_webapp/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// UseRedis sets the shared client for the rate limiters. With nil the
// limiters count in process memory instead.
func UseRedis(client *redis.Client) {
	redisClient = client
}

// RedisRateLimit is a fixed-window limiter keyed by client IP.
// key format: rl:<window_seconds>:<ip>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		if !allow(c, key, c.FullPath(), maxRequests, window) {
			return
		}
		c.Next()
	}
}

// UserRateLimit limits requests per authenticated user, across IPs. It must
// run after JWT.
func UserRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		key := "user_rl:" + strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		if !allow(c, key, "user:"+c.FullPath(), maxRequests, window) {
			return
		}
		c.Next()
	}
}

// allow counts the request and aborts with 429 once the window is used up.
// Redis errors fail open.
func allow(c *gin.Context, key, label string, maxRequests int, window time.Duration) bool {
	var count int64
	if redisClient == nil {
		count = int64(fallback.hit(key, window))
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("rate limiter redis error", "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			return true
		}
		if val == 1 {
			redisClient.Expire(ctx, key, window)
		}
		count = val
	}

	remaining := int64(maxRequests) - count
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

	if count > int64(maxRequests) {
		RLBlocked.WithLabelValues(label).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"ok":          false,
			"message":     "Too many requests.",
			"retry_after": int(window.Seconds()),
		})
		return false
	}

	RLRequests.WithLabelValues(label).Inc()
	return true
}

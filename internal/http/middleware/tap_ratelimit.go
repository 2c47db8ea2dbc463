package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// TapRateLimit limits tap batches per player (not per IP) using Redis.
// Requires the JWT middleware to have run first.
func TapRateLimit(maxTaps int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			// Redis not configured, fail-open
			c.Next()
			return
		}

		playerIDVal, exists := c.Get("player_id")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		playerID, ok := playerIDVal.(int64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid player"})
			return
		}

		key := "tap_rl:" + strconv.FormatInt(playerID, 10) + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		ctx := context.Background()

		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			c.Header("X-TapRateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if val == 1 {
			redisClient.Expire(ctx, key, window)
		}

		remaining := int64(maxTaps) - val
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-TapRateLimit-Limit", strconv.Itoa(maxTaps))
		c.Header("X-TapRateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if val > int64(maxTaps) {
			RLBlocked.WithLabelValues("tap:" + c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "tap rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues("tap:" + c.FullPath()).Inc()
		c.Next()
	}
}

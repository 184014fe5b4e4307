package middlewares

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// LoginRateLimiter throttles credential-guessing against the auth
// endpoints, counting attempts per client IP in redis so the limit
// holds across instances.
type LoginRateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	log    *slog.Logger
}

func NewLoginRateLimiter(rdb *redis.Client, limit int, window time.Duration, log *slog.Logger) *LoginRateLimiter {
	return &LoginRateLimiter{rdb: rdb, limit: limit, window: window, log: log}
}

// Middleware fails open: if redis is down, auth still works. Locking
// every user out because the limiter store is unreachable would be a
// worse failure than letting some extra attempts through.
func (rl *LoginRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:login:%s", clientIP(c))

		count, err := rl.rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			rl.log.Warn("rate limiter unavailable", slog.String("error", err.Error()))
			c.Next()
			return
		}

		if count == 1 {
			rl.rdb.Expire(c.Request.Context(), key, rl.window)
		}

		if count > int64(rl.limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many attempts. Please try again shortly.",
				},
			})
			return
		}

		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

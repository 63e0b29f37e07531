package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pizzashop/pkg/config"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"github.com/wyfcoding/pizzashop/pkg/ratelimit"
)

// RateLimitMiddleware 按调用方限流，须挂在 JWTAuth 之后才能按用户计数
func RateLimitMiddleware(limiter ratelimit.RateLimiter, cfg config.RateLimitConfig) gin.HandlerFunc {
	var guard *ratelimit.Guard
	if cfg.Enabled && limiter != nil {
		guard = ratelimit.NewGuard(limiter, ratelimit.PerSecond(cfg.QPS, cfg.Burst))
	}

	return func(c *gin.Context) {
		res, err := guard.Check(c.Request.Context(), UserID(c), c.ClientIP())
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if res == nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(res.ResetAfter/time.Second), 10))

		if !res.Allowed {
			c.Header("Retry-After", strconv.FormatInt(int64(res.RetryAfter/time.Second)+1, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too Many Requests",
				"status_code": http.StatusTooManyRequests,
				"retry_after": res.RetryAfter.String(),
			})
			return
		}

		c.Next()
	}
}

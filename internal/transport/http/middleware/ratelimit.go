package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"toob-api/internal/core/ratelimit"
	resp "toob-api/internal/transport/http/response"
)

// RateLimit 全局令牌桶限速；rps<=0 不限制
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	lim := rate.NewLimiter(rps, max(burst, 1))
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		resp.AbortStatus(c, http.StatusTooManyRequests, "")
	}
}

// FixedWindow 按客户端 IP 的固定窗口限流，写 RateLimit-* 响应头；
// 计数存储不可用时放行
func FixedWindow(name string, store ratelimit.Store, limit int64, window time.Duration, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, resetAt, err := store.Hit(c.Request.Context(), name+":"+c.ClientIP(), window)
		if err != nil {
			l.Warn("rate limit store unavailable, request allowed", zap.String("limiter", name), zap.Error(err))
			c.Next()
			return
		}

		reset := int64(math.Ceil(time.Until(resetAt).Seconds()))
		if reset < 0 {
			reset = 0
		}
		h := c.Writer.Header()
		h.Set("RateLimit-Limit", strconv.FormatInt(limit, 10))
		h.Set("RateLimit-Remaining", strconv.FormatInt(max(limit-count, 0), 10))
		h.Set("RateLimit-Reset", strconv.FormatInt(reset, 10))

		if count > limit {
			h.Set("Retry-After", strconv.FormatInt(reset, 10))
			resp.AbortStatus(c, http.StatusTooManyRequests, "")
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "toob-api/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小；超限时 handler 读 body 会拿到 *http.MaxBytesError
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
		if c.Errors.Last() != nil && !c.Writer.Written() {
			resp.AbortStatus(c, http.StatusRequestEntityTooLarge, "")
		}
	}
}

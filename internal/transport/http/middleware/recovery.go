package middleware

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "toob-api/internal/transport/http/response"
)

// Recovery panic 记日志（带堆栈），客户端只拿到通用 500
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, _ any) {
		resp.AbortStatus(c, http.StatusInternalServerError, "")
	})
}

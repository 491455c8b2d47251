// Package response 统一响应信封：{success, message?, ...payload}
package response

import (
	"github.com/gin-gonic/gin"

	"toob-api/internal/domain"
)

// OK 成功响应；payload 字段平铺到顶层
func OK(payload gin.H) gin.H {
	out := gin.H{"success": true}
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// Error 失败响应（customMsg 为空时用默认文案）
func Error(status int, customMsg string) gin.H {
	msg := StatusMsgMap[status]
	if customMsg != "" {
		msg = customMsg
	}
	return gin.H{"success": false, "message": msg}
}

// FromError 业务错误 → (状态码, 信封)；非业务错误与 5xx 不透出内部细节
func FromError(err error) (int, gin.H) {
	status := StatusOf(err)
	e := domain.AsError(err)
	if e == nil {
		return status, Error(status, "")
	}
	body := Error(status, e.Msg)
	if e.Reason != "" {
		body["reason"] = e.Reason
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	if len(e.Violations) > 0 {
		body["errors"] = e.Violations
	}
	return status, body
}

// Abort 写失败响应并终止后续 handler
func Abort(c *gin.Context, err error) {
	status, body := FromError(err)
	c.AbortWithStatusJSON(status, body)
}

func AbortStatus(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Error(status, msg))
}

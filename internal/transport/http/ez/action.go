// Package ez 一行注册非 CRUD 接口：绑定入参 → 调 handler → 统一信封
package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toob-api/internal/core/auth"
	"toob-api/internal/domain"
	resp "toob-api/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定；空 body 视为零值
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// Action I 为入参；Handler 返回的 payload 平铺进 {success:true, ...}
type Action[I any] struct {
	Method  string
	Path    string
	Binder  Binder
	Status  int  // 成功状态码，默认 200
	Auth    bool // 要求鉴权中间件已写入 userId
	Handler func(c *gin.Context, in *I) (gin.H, error)
}

// UserID 鉴权中间件解析出的用户
func UserID(c *gin.Context) string {
	id, _ := auth.UserIDFrom(c.Request.Context())
	return id
}

func Register[I any](e EZ, a Action[I]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		if a.Auth && UserID(c) == "" {
			resp.Abort(c, domain.Unauthorized(domain.ReasonMissingToken, "not authorized, token missing"))
			return
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
			if errors.Is(bindErr, io.EOF) {
				bindErr = nil
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(bindErr, &tooLarge) {
				resp.AbortStatus(c, http.StatusRequestEntityTooLarge, "")
				return
			}
			resp.Abort(c, domain.Validation("invalid request"))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			code, body := resp.FromError(err)
			if code >= http.StatusInternalServerError {
				e.log.Error("request failed",
					zap.String("rid", c.GetString("rid")),
					zap.String("path", c.FullPath()),
					zap.Error(err))
			}
			c.AbortWithStatusJSON(code, body)
			return
		}
		c.JSON(status, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

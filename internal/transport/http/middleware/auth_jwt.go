package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"toob-api/internal/core/auth"
	"toob-api/internal/domain"
	resp "toob-api/internal/transport/http/response"
)

const KeyUserID = "userId"

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// AuthJWT 只校验身份，不查库；通过后 userId 同时写入 gin 上下文和 request context
func AuthJWT(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		tok = strings.TrimSpace(tok)
		if !ok || tok == "" {
			resp.Abort(c, domain.Unauthorized(domain.ReasonMissingToken, "not authorized, token missing"))
			return
		}
		claims, err := p.Parse(tok)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				resp.Abort(c, domain.Unauthorized(domain.ReasonTokenExpired, "token expired, please log in again"))
				return
			}
			resp.Abort(c, domain.Unauthorized(domain.ReasonTokenInvalid, "invalid token"))
			return
		}
		c.Set(KeyUserID, claims.UserID)
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

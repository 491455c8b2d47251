package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toob-api/internal/domain"
	"toob-api/internal/service"
	"toob-api/internal/transport/http/ez"
)

// AuthModule /auth：注册、登录、个人资料
type AuthModule struct {
	Svc  *service.AuthService
	Gate gin.HandlerFunc
	Log  *zap.Logger
}

func (m *AuthModule) Priority() int { return 10 }

func (m *AuthModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/auth")
	pub := ez.New(g, m.Log)

	ez.Register(pub, ez.Action[service.RegisterInput]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.RegisterInput) (gin.H, error) {
			res, err := m.Svc.Register(c.Request.Context(), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "account created successfully", "token": res.Token, "user": userSummary(res.User)}, nil
		},
	})

	ez.Register(pub, ez.Action[service.LoginInput]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.LoginInput) (gin.H, error) {
			res, err := m.Svc.Login(c.Request.Context(), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "logged in successfully", "token": res.Token, "user": userSummary(res.User)}, nil
		},
	})

	priv := ez.New(g.Group("", m.Gate), m.Log)
	ez.Register(priv, ez.Action[struct{}]{
		Method: http.MethodGet,
		Path:   "/profile",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			u, err := m.Svc.Profile(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})
}

func userSummary(u *domain.User) gin.H {
	return gin.H{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"avatar":   u.AvatarURL,
		"role":     u.Role,
	}
}

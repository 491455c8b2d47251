package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"toob-api/internal/core/config"
	"toob-api/internal/core/ratelimit"
	"toob-api/internal/domain"
	"toob-api/internal/service"
	"toob-api/internal/transport/http/handler"
	mdw "toob-api/internal/transport/http/middleware"
	resp "toob-api/internal/transport/http/response"
)

type Deps struct {
	Cfg    *config.Config
	Log    *zap.Logger
	Tokens mdw.TokenParser
	Auth   *service.AuthService
	Lists  *service.UserMovieService
	Movies domain.MovieGateway
	// PopularStore /tmdb/popular 固定窗口计数；nil 时用进程内存
	PopularStore ratelimit.Store
}

func NewAPIEngine(d Deps) *gin.Engine {
	cfg, l := d.Cfg, d.Log
	h := cfg.App.HTTP
	r := gin.New()
	// 为空时不信任任何代理，ClientIP 取连接对端地址
	if err := r.SetTrustedProxies(h.TrustedProxies); err != nil {
		l.Fatal("invalid trusted proxies", zap.Strings("trustedProxies", h.TrustedProxies), zap.Error(err))
	}

	// 中间件（顺序即执行顺序）
	r.Use(mdw.RequestID())
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  cfg.CORS.AllowMethods,
			AllowHeaders:  []string{"Content-Type", "Authorization"},
			ExposeHeaders: []string{mdw.HeaderRequestID, "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
			MaxAge:        12 * time.Hour,
		}))
	}
	r.Use(
		mdw.RateLimit(rate.Limit(h.GlobalRPS), h.GlobalBurst),
		mdw.ConcurrencyLimit(h.MaxInFlight),
		mdw.MaxBodyBytes(h.MaxBodyBytes),
		mdw.Timeout(time.Duration(h.RequestTimeoutSec)*time.Second),
		mdw.Recovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l, "/health", "/metrics"),
	)

	// 健康检查 / 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(gin.H{"status": "ok"})) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) { resp.AbortStatus(c, http.StatusNotFound, "route not found") })

	gate := mdw.AuthJWT(d.Tokens)

	store := d.PopularStore
	if store == nil {
		store = ratelimit.NewMemory()
	}
	w := cfg.RateLimit.Popular
	var popularLimit gin.HandlerFunc
	if w.Limit > 0 && w.WindowMin > 0 {
		popularLimit = mdw.FixedWindow("popular", store, w.Limit, time.Duration(w.WindowMin)*time.Minute, l)
	}

	var reg Registry
	reg.Register(
		&handler.AuthModule{Svc: d.Auth, Gate: gate, Log: l},
		&handler.TMDBModule{Movies: d.Movies, PopularLimit: popularLimit, Log: l},
		&handler.UserMoviesModule{Svc: d.Lists, Gate: gate, Log: l},
	)
	reg.MountAll(r.Group("/api"))
	return r
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toob-api/internal/domain"
	"toob-api/internal/transport/http/ez"
)

// 详情页附带的关联数据
var detailRelations = []string{"videos", "credits", "similar", "recommendations"}

// TMDBModule /tmdb：公开的影片代理接口
type TMDBModule struct {
	Movies domain.MovieGateway
	// PopularLimit 挂在 /popular 上的限流中间件，可为 nil
	PopularLimit gin.HandlerFunc
	Log          *zap.Logger
}

func (m *TMDBModule) Priority() int { return 20 }

func (m *TMDBModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/tmdb")
	e := ez.New(g, m.Log)

	popular := g
	if m.PopularLimit != nil {
		popular = g.Group("", m.PopularLimit)
	}
	ez.Register(ez.New(popular, m.Log), ez.Action[struct{}]{
		Method: http.MethodGet,
		Path:   "/popular",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			movies, err := m.Movies.Popular(c.Request.Context())
			if err != nil {
				return nil, err
			}
			return gin.H{"results": movies}, nil
		},
	})

	ez.Register(e, ez.Action[struct{}]{
		Method: http.MethodGet,
		Path:   "/movies/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil || id <= 0 {
				return nil, domain.Validation("invalid movie id")
			}
			movie, err := m.Movies.GetByID(c.Request.Context(), id, detailRelations...)
			if err != nil {
				return nil, err
			}
			return gin.H{"movie": movie}, nil
		},
	})

	type searchQuery struct {
		Page int `form:"page"`
	}
	ez.Register(e, ez.Action[searchQuery]{
		Method: http.MethodGet,
		Path:   "/search/:name",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *searchQuery) (gin.H, error) {
			res, err := m.Movies.Search(c.Request.Context(), c.Param("name"), in.Page)
			if err != nil {
				return nil, err
			}
			return gin.H{
				"results":      res.Results,
				"page":         res.Page,
				"totalResults": res.TotalResults,
				"totalPages":   res.TotalPages,
			}, nil
		},
	})
}

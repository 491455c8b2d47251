package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toob-api/internal/service"
	"toob-api/internal/transport/http/ez"
)

// movieBody movieId / rating 保持原始 JSON 值，由 service 解析
type movieBody struct {
	MovieID any `json:"movieId"`
	Rating  any `json:"rating"`
}

// UserMoviesModule /user-movies：收藏与已看列表，全部需要登录
type UserMoviesModule struct {
	Svc  *service.UserMovieService
	Gate gin.HandlerFunc
	Log  *zap.Logger
}

func (m *UserMoviesModule) Priority() int { return 30 }

func (m *UserMoviesModule) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/user-movies", m.Gate), m.Log)

	ez.Register(e, ez.Action[struct{}]{
		Method: http.MethodGet, Path: "/favorites", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			list, err := m.Svc.ListFavorites(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"count": len(list), "favoriteMovies": list}, nil
		},
	})
	ez.Register(e, ez.Action[movieBody]{
		Method: http.MethodPost, Path: "/favorites", Binder: ez.BindJSON, Auth: true, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *movieBody) (gin.H, error) {
			list, err := m.Svc.AddFavorite(c.Request.Context(), ez.UserID(c), service.ParseMovieID(in.MovieID))
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "movie added to favorites", "favoriteMovies": list}, nil
		},
	})
	ez.Register(e, ez.Action[movieBody]{
		Method: http.MethodDelete, Path: "/favorites", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *movieBody) (gin.H, error) {
			list, err := m.Svc.RemoveFavorite(c.Request.Context(), ez.UserID(c), service.ParseMovieID(in.MovieID))
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "movie removed from favorites", "favoriteMovies": list}, nil
		},
	})
	ez.Register(e, ez.Action[struct{}]{
		Method: http.MethodGet, Path: "/favorites/details", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			movies, err := m.Svc.FavoritesWithDetails(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"count": len(movies), "movies": movies}, nil
		},
	})

	ez.Register(e, ez.Action[struct{}]{
		Method: http.MethodGet, Path: "/watched", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			list, err := m.Svc.ListWatched(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"count": len(list), "watchedMovies": list}, nil
		},
	})
	ez.Register(e, ez.Action[movieBody]{
		Method: http.MethodPost, Path: "/watched", Binder: ez.BindJSON, Auth: true, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *movieBody) (gin.H, error) {
			list, err := m.Svc.AddWatched(c.Request.Context(), ez.UserID(c),
				service.ParseMovieID(in.MovieID), service.ParseRating(in.Rating))
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "movie marked as watched", "watchedMovies": list}, nil
		},
	})
	ez.Register(e, ez.Action[movieBody]{
		Method: http.MethodDelete, Path: "/watched", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *movieBody) (gin.H, error) {
			list, err := m.Svc.RemoveWatched(c.Request.Context(), ez.UserID(c), service.ParseMovieID(in.MovieID))
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "movie removed from watched list", "watchedMovies": list}, nil
		},
	})
	ez.Register(e, ez.Action[struct{}]{
		Method: http.MethodGet, Path: "/watched/details", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			movies, err := m.Svc.WatchedWithDetails(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"count": len(movies), "movies": movies}, nil
		},
	})
}

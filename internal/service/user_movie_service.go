package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"toob-api/internal/domain"
)

// UserMovieService 收藏 / 已看列表
type UserMovieService struct {
	users  domain.UserRepository
	movies domain.MovieGateway
	log    *zap.Logger
	now    func() time.Time
	// 详情并发上限，<=0 不限制
	detailsConcurrency int
}

func NewUserMovieService(users domain.UserRepository, movies domain.MovieGateway, detailsConcurrency int, l *zap.Logger) *UserMovieService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserMovieService{
		users:              users,
		movies:             movies,
		log:                l.Named("user_movies"),
		now:                time.Now,
		detailsConcurrency: detailsConcurrency,
	}
}

func (s *UserMovieService) load(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.Internal("failed to load user", err)
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

func (s *UserMovieService) AddFavorite(ctx context.Context, userID string, movieID int64) ([]domain.FavoriteMovie, error) {
	if movieID <= 0 {
		return nil, errMovieIDRequired
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.HasFavorite(movieID) {
		return nil, domain.AlreadyExists("movie already in favorites")
	}
	inserted, err := s.users.AddFavorite(ctx, userID, domain.FavoriteMovie{MovieID: movieID, AddedAt: s.now()})
	if err != nil {
		return nil, domain.Internal("failed to add favorite", err)
	}
	if !inserted {
		// 并发请求抢先插入
		return nil, domain.AlreadyExists("movie already in favorites")
	}
	return s.ListFavorites(ctx, userID)
}

func (s *UserMovieService) RemoveFavorite(ctx context.Context, userID string, movieID int64) ([]domain.FavoriteMovie, error) {
	if movieID <= 0 {
		return nil, errMovieIDRequired
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.HasFavorite(movieID) {
		return nil, domain.NotInList("movie is not in favorites")
	}
	removed, err := s.users.RemoveFavorite(ctx, userID, movieID)
	if err != nil {
		return nil, domain.Internal("failed to remove favorite", err)
	}
	if !removed {
		return nil, domain.NotInList("movie is not in favorites")
	}
	return s.ListFavorites(ctx, userID)
}

func (s *UserMovieService) ListFavorites(ctx context.Context, userID string) ([]domain.FavoriteMovie, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.FavoriteMovies, nil
}

// FavoritesWithDetails 逐条拉上游详情并合并 addedAt；单条失败只丢弃该条
func (s *UserMovieService) FavoritesWithDetails(ctx context.Context, userID string) ([]domain.Movie, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return joinDetails(ctx, s, u.FavoriteMovies,
		func(f domain.FavoriteMovie) int64 { return f.MovieID },
		func(m domain.Movie, f domain.FavoriteMovie) { m["addedAt"] = f.AddedAt },
	), nil
}

func (s *UserMovieService) AddWatched(ctx context.Context, userID string, movieID int64, rating *int) ([]domain.WatchedMovie, error) {
	if movieID <= 0 {
		return nil, errMovieIDRequired
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.HasWatched(movieID) {
		return nil, domain.AlreadyExists("movie already marked as watched")
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		rating = nil
	}
	inserted, err := s.users.AddWatched(ctx, userID, domain.WatchedMovie{MovieID: movieID, WatchedAt: s.now(), Rating: rating})
	if err != nil {
		return nil, domain.Internal("failed to add watched movie", err)
	}
	if !inserted {
		return nil, domain.AlreadyExists("movie already marked as watched")
	}
	return s.ListWatched(ctx, userID)
}

func (s *UserMovieService) RemoveWatched(ctx context.Context, userID string, movieID int64) ([]domain.WatchedMovie, error) {
	if movieID <= 0 {
		return nil, errMovieIDRequired
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.HasWatched(movieID) {
		return nil, domain.NotInList("movie is not in watched list")
	}
	removed, err := s.users.RemoveWatched(ctx, userID, movieID)
	if err != nil {
		return nil, domain.Internal("failed to remove watched movie", err)
	}
	if !removed {
		return nil, domain.NotInList("movie is not in watched list")
	}
	return s.ListWatched(ctx, userID)
}

func (s *UserMovieService) ListWatched(ctx context.Context, userID string) ([]domain.WatchedMovie, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.WatchedMovies, nil
}

// WatchedWithDetails 合并 watchedAt，有评分时附带 userRating
func (s *UserMovieService) WatchedWithDetails(ctx context.Context, userID string) ([]domain.Movie, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return joinDetails(ctx, s, u.WatchedMovies,
		func(w domain.WatchedMovie) int64 { return w.MovieID },
		func(m domain.Movie, w domain.WatchedMovie) {
			m["watchedAt"] = w.WatchedAt
			if w.Rating != nil {
				m["userRating"] = *w.Rating
			}
		},
	), nil
}

// joinDetails 每条一个结果槽，全部结束后按原顺序收集成功项
func joinDetails[T any](ctx context.Context, s *UserMovieService, items []T, idOf func(T) int64, merge func(domain.Movie, T)) []domain.Movie {
	slots := make([]domain.Movie, len(items))
	var g errgroup.Group
	limit := s.detailsConcurrency
	if limit <= 0 {
		limit = -1
	}
	g.SetLimit(limit)

	for i, it := range items {
		g.Go(func() error {
			id := idOf(it)
			m, err := s.movies.GetByID(ctx, id)
			if err != nil {
				s.log.Warn("movie details unavailable, skipped", zap.Int64("movieId", id), zap.Error(err))
				return nil
			}
			if m == nil {
				m = domain.Movie{}
			}
			merge(m, it)
			slots[i] = m
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Movie, 0, len(items))
	for _, m := range slots {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

var errMovieIDRequired = domain.Validation("movie id required", domain.FieldViolation{
	Field: "movieId", Rule: "required", Message: "movie id required",
})

// ParseMovieID 接受正整数（JSON 数字或数字字符串），其它一律视为缺失
func ParseMovieID(v any) int64 {
	switch x := v.(type) {
	case float64:
		if x > 0 && x == math.Trunc(x) && x < math.MaxInt64 {
			return int64(x)
		}
	case json.Number:
		if n, err := x.Int64(); err == nil && n > 0 {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil && n > 0 {
			return n
		}
	case int:
		if x > 0 {
			return int64(x)
		}
	case int64:
		if x > 0 {
			return x
		}
	}
	return 0
}

// ParseRating 只接受 [0,5] 内的整数数字；其它返回 nil（静默丢弃）
func ParseRating(v any) *int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return nil
		}
		f = n
	case int:
		f = float64(x)
	default:
		return nil
	}
	if f != math.Trunc(f) || f < 0 || f > 5 {
		return nil
	}
	r := int(f)
	return &r
}

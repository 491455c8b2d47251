package domain

import (
	"context"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func ValidRole(r string) bool { return r == RoleUser || r == RoleAdmin }

type FavoriteMovie struct {
	MovieID int64     `json:"movieId"`
	AddedAt time.Time `json:"addedAt"`
}

type WatchedMovie struct {
	MovieID   int64     `json:"movieId"`
	WatchedAt time.Time `json:"watchedAt"`
	Rating    *int      `json:"rating,omitempty"` // 0..5
}

type User struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	PasswordHash   string          `json:"-"`
	AvatarURL      string          `json:"avatar"`
	Role           string          `json:"role"` // "user"/"admin"
	FavoriteMovies []FavoriteMovie `json:"favoriteMovies"`
	WatchedMovies  []WatchedMovie  `json:"watchedMovies"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (u *User) HasFavorite(movieID int64) bool {
	for _, f := range u.FavoriteMovies {
		if f.MovieID == movieID {
			return true
		}
	}
	return false
}

func (u *User) HasWatched(movieID int64) bool {
	for _, w := range u.WatchedMovies {
		if w.MovieID == movieID {
			return true
		}
	}
	return false
}

// UserRepository 找不到记录时返回 (nil, nil)
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Save(ctx context.Context, u *User) error

	// Add* 为原子"不存在才插入"，返回是否真正插入
	AddFavorite(ctx context.Context, userID string, f FavoriteMovie) (bool, error)
	RemoveFavorite(ctx context.Context, userID string, movieID int64) (bool, error)
	AddWatched(ctx context.Context, userID string, w WatchedMovie) (bool, error)
	RemoveWatched(ctx context.Context, userID string, movieID int64) (bool, error)
}

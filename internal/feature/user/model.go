package user

import (
	"time"

	"gorm.io/gorm"
)

type UserModel struct {
	ID           string `gorm:"primaryKey;type:varchar(32)"`
	Username     string `gorm:"uniqueIndex;size:30;not null"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:100;not null"`
	AvatarURL    string `gorm:"size:512"`
	Role         string `gorm:"size:16;not null;default:user"`

	FavoriteMovies []FavoriteMovieModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	WatchedMovies  []WatchedMovieModel  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

// (user_id, movie_id) 唯一：同一用户的收藏里 movieId 不重复
type FavoriteMovieModel struct {
	ID      uint      `gorm:"primaryKey"`
	UserID  string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_fav_user_movie,priority:1"`
	MovieID int64     `gorm:"not null;uniqueIndex:idx_fav_user_movie,priority:2"`
	AddedAt time.Time `gorm:"not null"`
}

func (FavoriteMovieModel) TableName() string { return "favorite_movies" }

type WatchedMovieModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_watched_user_movie,priority:1"`
	MovieID   int64     `gorm:"not null;uniqueIndex:idx_watched_user_movie,priority:2"`
	WatchedAt time.Time `gorm:"not null"`
	Rating    *int      `gorm:"check:rating >= 0 AND rating <= 5"`
}

func (WatchedMovieModel) TableName() string { return "watched_movies" }

// Models 供 AutoMigrate 使用
func Models() []any {
	return []any{&UserModel{}, &FavoriteMovieModel{}, &WatchedMovieModel{}}
}

func Migrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }

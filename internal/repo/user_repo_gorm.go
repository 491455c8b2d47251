package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"toob-api/internal/domain"
	"toob-api/internal/feature/user"
)

type UserRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db, now: time.Now} }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if !domain.ValidRole(u.Role) {
		return domain.Validation("role must be one of [user admin]")
	}
	m := toModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDupKey(err) {
			return dupFieldErr(err)
		}
		return err
	}
	u.CreatedAt, u.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

// FindByID 默认不带密码列
func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, false, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, true, "email = ?", email)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, true, "username = ?", username)
}

func (r *UserRepo) findOne(ctx context.Context, withPassword bool, query string, args ...any) (*domain.User, error) {
	q := r.db.WithContext(ctx).
		Preload("FavoriteMovies", byInsertion).
		Preload("WatchedMovies", byInsertion)
	if !withPassword {
		q = q.Omit("password_hash")
	}
	var m user.UserModel
	err := q.Where(query, args...).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

func byInsertion(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }

// Save 整文档写回：标量字段 + 两个列表整体替换（单事务）。
// 列表增删不走这里，UserMovieService 只用下面的原子操作
func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now()
		fields := map[string]any{
			"username":   u.Username,
			"email":      u.Email,
			"avatar_url": u.AvatarURL,
			"role":       u.Role,
			"updated_at": now,
		}
		// 通过 FindByID 读出的文档没有密码，不能覆盖掉
		if u.PasswordHash != "" {
			fields["password_hash"] = u.PasswordHash
		}
		res := tx.Model(&user.UserModel{}).Where("id = ?", u.ID).Updates(fields)
		if res.Error != nil {
			if isDupKey(res.Error) {
				return dupFieldErr(res.Error)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("user not found")
		}

		if err := tx.Where("user_id = ?", u.ID).Delete(&user.FavoriteMovieModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&user.WatchedMovieModel{}).Error; err != nil {
			return err
		}
		m := toModel(u)
		if len(m.FavoriteMovies) > 0 {
			if err := tx.Create(&m.FavoriteMovies).Error; err != nil {
				return err
			}
		}
		if len(m.WatchedMovies) > 0 {
			if err := tx.Create(&m.WatchedMovies).Error; err != nil {
				return err
			}
		}
		u.UpdatedAt = now
		return nil
	})
}

// AddFavorite 依赖 (user_id, movie_id) 唯一索引做原子 add-if-absent
func (r *UserRepo) AddFavorite(ctx context.Context, userID string, f domain.FavoriteMovie) (bool, error) {
	return r.insertIfAbsent(ctx, userID, &user.FavoriteMovieModel{
		UserID: userID, MovieID: f.MovieID, AddedAt: f.AddedAt,
	})
}

func (r *UserRepo) AddWatched(ctx context.Context, userID string, w domain.WatchedMovie) (bool, error) {
	return r.insertIfAbsent(ctx, userID, &user.WatchedMovieModel{
		UserID: userID, MovieID: w.MovieID, WatchedAt: w.WatchedAt, Rating: w.Rating,
	})
}

func (r *UserRepo) RemoveFavorite(ctx context.Context, userID string, movieID int64) (bool, error) {
	return r.deleteEntry(ctx, userID, movieID, &user.FavoriteMovieModel{})
}

func (r *UserRepo) RemoveWatched(ctx context.Context, userID string, movieID int64) (bool, error) {
	return r.deleteEntry(ctx, userID, movieID, &user.WatchedMovieModel{})
}

func (r *UserRepo) insertIfAbsent(ctx context.Context, userID string, row any) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, r.touch(ctx, userID)
}

func (r *UserRepo) deleteEntry(ctx context.Context, userID string, movieID int64, model any) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(model)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, r.touch(ctx, userID)
}

func (r *UserRepo) touch(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&user.UserModel{}).
		Where("id = ?", userID).
		Update("updated_at", r.now()).Error
}

func isDupKey(err error) bool {
	// 不依赖 gorm.ErrDuplicatedKey，保留驱动原始信息用于判断冲突字段
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

func dupFieldErr(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "email"):
		return domain.DuplicateField("email", "this email is already in use")
	case strings.Contains(msg, "username"):
		return domain.DuplicateField("username", "this username is already taken")
	}
	return domain.DuplicateField("", "username or email already in use")
}

func toModel(u *domain.User) user.UserModel {
	m := user.UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		AvatarURL:    u.AvatarURL,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	for _, f := range u.FavoriteMovies {
		m.FavoriteMovies = append(m.FavoriteMovies, user.FavoriteMovieModel{
			UserID: u.ID, MovieID: f.MovieID, AddedAt: f.AddedAt,
		})
	}
	for _, w := range u.WatchedMovies {
		m.WatchedMovies = append(m.WatchedMovies, user.WatchedMovieModel{
			UserID: u.ID, MovieID: w.MovieID, WatchedAt: w.WatchedAt, Rating: w.Rating,
		})
	}
	return m
}

func toDomain(m *user.UserModel) *domain.User {
	u := &domain.User{
		ID:             m.ID,
		Username:       m.Username,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		AvatarURL:      m.AvatarURL,
		Role:           m.Role,
		FavoriteMovies: make([]domain.FavoriteMovie, 0, len(m.FavoriteMovies)),
		WatchedMovies:  make([]domain.WatchedMovie, 0, len(m.WatchedMovies)),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, f := range m.FavoriteMovies {
		u.FavoriteMovies = append(u.FavoriteMovies, domain.FavoriteMovie{MovieID: f.MovieID, AddedAt: f.AddedAt})
	}
	for _, w := range m.WatchedMovies {
		u.WatchedMovies = append(u.WatchedMovies, domain.WatchedMovie{MovieID: w.MovieID, WatchedAt: w.WatchedAt, Rating: w.Rating})
	}
	return u
}

package service

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"toob-api/internal/domain"
	"toob-api/pkg/utils"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type StructValidator interface {
	Struct(s any) error
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email"    validate:"required,email_shape"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService struct {
	users  domain.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	v      StructValidator
	log    *zap.Logger
}

func NewAuthService(users domain.UserRepository, hasher PasswordHasher, tokens TokenIssuer, v StructValidator, l *zap.Logger) *AuthService {
	if l == nil {
		l = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		v:      v,
		log:    l.Named("auth"),
	}
}

// DefaultAvatar 按用户名生成的占位头像
func DefaultAvatar(username string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(username) + "&size=150&background=0D8ABC&color=fff"
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.v.Struct(in); err != nil {
		return nil, err
	}

	// 先查 email 再查 username；跨请求的竞争由唯一索引兜底
	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, domain.Internal("failed to create account", err)
	}
	if existing != nil {
		return nil, domain.DuplicateField("email", "this email is already in use")
	}
	existing, err = s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, domain.Internal("failed to create account", err)
	}
	if existing != nil {
		return nil, domain.DuplicateField("username", "this username is already taken")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.Internal("failed to create account", err)
	}
	u := &domain.User{
		ID:             utils.NewID(),
		Username:       in.Username,
		Email:          in.Email,
		PasswordHash:   hash,
		AvatarURL:      DefaultAvatar(in.Username),
		Role:           domain.RoleUser,
		FavoriteMovies: []domain.FavoriteMovie{},
		WatchedMovies:  []domain.WatchedMovie{},
	}
	if err := s.users.Create(ctx, u); err != nil {
		if domain.AsError(err) != nil {
			return nil, err
		}
		return nil, domain.Internal("failed to create account", err)
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, domain.Internal("failed to issue token", err)
	}
	s.log.Info("user registered", zap.String("userId", u.ID), zap.String("username", u.Username))
	return &AuthResult{Token: tok, User: u}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.v.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, domain.Internal("failed to log in", err)
	}
	// 用户不存在与密码错误返回同一条信息
	if u == nil || !s.hasher.Verify(in.Password, u.PasswordHash) {
		s.log.Debug("login rejected", zap.String("email", in.Email))
		return nil, domain.Unauthorized(domain.ReasonInvalidCredentials, "invalid email or password")
	}
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, domain.Internal("failed to issue token", err)
	}
	return &AuthResult{Token: tok, User: u}, nil
}

// Profile 不含密码
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.Internal("failed to load profile", err)
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	u.PasswordHash = ""
	return u, nil
}

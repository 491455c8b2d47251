package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toob-api/internal/domain"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	res, err := f.auth.Register(context.Background(), RegisterInput{
		Username: "  alice ", Email: " A@X.com ", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Equal(t, domain.RoleUser, res.User.Role)
	assert.Equal(t, "https://ui-avatars.com/api/?name=alice&size=150&background=0D8ABC&color=fff", res.User.AvatarURL)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)

	claims, err := f.jwt.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Email: "a@x.com", Password: "secret1"}, "username"},
		{"short username", RegisterInput{Username: "al", Email: "a@x.com", Password: "secret1"}, "username"},
		{"bad email", RegisterInput{Username: "alice", Email: "not-an-email", Password: "secret1"}, "email"},
		{"short password", RegisterInput{Username: "alice", Email: "a@x.com", Password: "123"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.auth.Register(context.Background(), tt.in)
			require.ErrorIs(t, err, domain.ErrValidation)
			e := domain.AsError(err)
			require.NotEmpty(t, e.Violations)
			assert.Equal(t, tt.field, e.Violations[0].Field)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "a@x.com")

	_, err := f.auth.Register(context.Background(), RegisterInput{Username: "bob", Email: "A@x.com", Password: "secret1"})
	require.ErrorIs(t, err, domain.ErrDuplicateField)
	assert.Equal(t, "email", domain.AsError(err).Field)

	_, err = f.auth.Register(context.Background(), RegisterInput{Username: "alice", Email: "b@x.com", Password: "secret1"})
	require.ErrorIs(t, err, domain.ErrDuplicateField)
	assert.Equal(t, "username", domain.AsError(err).Field)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice", "a@x.com")

	res, err := f.auth.Login(context.Background(), LoginInput{Email: "A@X.COM", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	claims, err := f.jwt.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "a@x.com")

	for name, in := range map[string]LoginInput{
		"wrong password": {Email: "a@x.com", Password: "wrong!"},
		"unknown email":  {Email: "nobody@x.com", Password: "secret1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Login(context.Background(), in)
			require.ErrorIs(t, err, domain.ErrUnauthorized)
			assert.Equal(t, domain.ReasonInvalidCredentials, domain.AsError(err).Reason)
		})
	}

	_, err := f.auth.Login(context.Background(), LoginInput{Email: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice", "a@x.com")

	got, err := f.auth.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.PasswordHash)

	_, err = f.auth.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

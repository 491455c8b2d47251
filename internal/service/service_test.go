package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"toob-api/internal/core/auth"
	"toob-api/internal/core/validation"
	"toob-api/internal/domain"
	"toob-api/internal/repo"
	"toob-api/internal/testutil"
)

// fakeGateway 按 id 返回固定影片；failIDs 中的 id 返回上游错误
type fakeGateway struct {
	mu       sync.Mutex
	failIDs  map[int64]bool
	calls    []int64
	inFlight int
	maxSeen  int
	delay    time.Duration
}

func (g *fakeGateway) Popular(context.Context) ([]domain.Movie, error) { return nil, nil }

func (g *fakeGateway) Search(context.Context, string, int) (*domain.SearchResult, error) {
	return &domain.SearchResult{}, nil
}

func (g *fakeGateway) GetByID(_ context.Context, id int64, _ ...string) (domain.Movie, error) {
	g.mu.Lock()
	g.calls = append(g.calls, id)
	g.inFlight++
	if g.inFlight > g.maxSeen {
		g.maxSeen = g.inFlight
	}
	fail := g.failIDs[id]
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	if fail {
		return nil, domain.Upstream("boom", errors.New("502"))
	}
	return domain.Movie{"id": float64(id), "title": "movie"}, nil
}

type fixture struct {
	users  *repo.UserRepo
	movies *fakeGateway
	auth   *AuthService
	lists  *UserMovieService
	jwt    *auth.JWTer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := repo.NewUserRepo(testutil.NewDB(t))
	gw := &fakeGateway{failIDs: map[int64]bool{}}
	j := &auth.JWTer{Secret: []byte("test-secret"), TTL: time.Hour}
	return &fixture{
		users:  users,
		movies: gw,
		jwt:    j,
		auth:   NewAuthService(users, auth.Hasher{Cost: 4}, j, validation.New(), nil),
		lists:  NewUserMovieService(users, gw, 4, nil),
	}
}

func (f *fixture) register(t *testing.T, username, email string) *domain.User {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: "secret1"})
	require.NoError(t, err)
	return res.User
}

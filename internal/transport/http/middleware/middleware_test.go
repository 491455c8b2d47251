package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"

	"toob-api/internal/core/auth"
	"toob-api/internal/core/ratelimit"
)

func init() { gin.SetMode(gin.TestMode) }

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthJWT(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("s3cret"), TTL: time.Hour}
	good, err := j.Issue("u1")
	require.NoError(t, err)
	past := &auth.JWTer{Secret: []byte("s3cret"), TTL: time.Hour, Now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
	expired, err := past.Issue("u1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthJWT(j), func(c *gin.Context) {
		id, _ := auth.UserIDFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"gin": c.GetString(KeyUserID), "ctx": id})
	})

	tests := []struct {
		name   string
		header string
		status int
		reason string
	}{
		{"missing", "", http.StatusUnauthorized, "missing_token"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "missing_token"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "missing_token"},
		{"garbage", "Bearer nope", http.StatusUnauthorized, "token_invalid"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "token_expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.reason, body["reason"])
			assert.NotEmpty(t, body["message"])
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+good)
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "u1", body["gin"])
	assert.Equal(t, "u1", body["ctx"])
}

func TestFixedWindow(t *testing.T) {
	r := gin.New()
	r.GET("/p", FixedWindow("popular", ratelimit.NewMemory(), 2, time.Hour, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i, remaining := range []string{"1", "0"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/p", nil))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
		assert.Equal(t, "2", w.Header().Get("RateLimit-Limit"))
		assert.Equal(t, remaining, w.Header().Get("RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("RateLimit-Reset"))
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	body := decode(t, w)
	assert.Equal(t, false, body["success"])

	other := httptest.NewRequest(http.MethodGet, "/p", nil)
	other.RemoteAddr = "10.0.0.9:1234"
	assert.Equal(t, http.StatusOK, serve(r, other).Code, "other clients have their own window")
}

type brokenStore struct{}

func (brokenStore) Hit(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("redis down")
}

func TestFixedWindowFailsOpen(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := gin.New()
	r.GET("/p", FixedWindow("popular", brokenStore{}, 1, time.Minute, zap.New(core)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/p", nil)).Code)
	}
	assert.Equal(t, 3, logs.Len())
}

func TestRateLimitTokenBucket(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(0.0001, 1))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom: db password=hunter2") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "server error", body["message"])
	assert.Equal(t, 1, logs.Len())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	rid := w.Header().Get(HeaderRequestID)
	assert.Len(t, rid, 36)
	assert.Equal(t, rid, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	assert.Equal(t, "abc-123", serve(r, req).Header().Get(HeaderRequestID))
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) {
		var v map[string]any
		err := c.ShouldBindJSON(&v)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"movieId":123456789}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	w = serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccessLogMasksAndSkips(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(AccessLog(zap.New(core), "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/x?token=abc&page=2", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	q := entry.ContextMap()["query"].(map[string][]string)
	assert.Equal(t, []string{"****"}, q["token"])
	assert.Equal(t, []string{"2"}, q["page"])
}

func TestConcurrencyLimitPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(ConcurrencyLimit(1))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 4000, c.App.HTTP.Port)
	assert.Equal(t, "7d", c.JWT.Expire)
	assert.Equal(t, "fr-FR", c.TMDB.Language)
	assert.Equal(t, 10, c.TMDB.PopularLimit)
	assert.Equal(t, int64(100), c.RateLimit.Popular.Limit)
	assert.Equal(t, 15, c.RateLimit.Popular.WindowMin)
	assert.Equal(t, []string{"GET", "POST", "DELETE", "OPTIONS"}, c.CORS.AllowMethods)
	assert.True(t, c.TMDB.Breaker.Enable)
	assert.Empty(t, c.App.HTTP.TrustedProxies)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	p := writeYAML(t, `
app:
  env: prod
  http:
    port: 8080
jwt:
  secret: from-file
  expire: 12h
tmdb:
  apiKey: file-key
  detailsConcurrency: 4
`)
	t.Setenv("APP_JWT_SECRET", "from-env")
	t.Setenv("TMDB_API_KEY", "legacy-key")
	t.Setenv("PORT", "9090")

	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "prod", c.App.Env)
	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, "from-env", c.JWT.Secret)
	assert.Equal(t, "legacy-key", c.TMDB.APIKey)
	assert.Equal(t, 4, c.TMDB.DetailsConcurrency)
	assert.Equal(t, 12*time.Hour, c.TokenTTL())
	require.NoError(t, c.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	p := writeYAML(t, "app: [unclosed")
	_, err := Load(p)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:       App{Env: "prod"},
			JWT:       JWT{Secret: "s", Expire: "7d"},
			TMDB:      TMDB{APIKey: "k"},
			RateLimit: RateLimit{Popular: Window{Store: "memory"}},
		}
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"ok", func(*Config) {}, false},
		{"missing secret", func(c *Config) { c.JWT.Secret = " " }, true},
		{"bad expire", func(c *Config) { c.JWT.Expire = "soon" }, true},
		{"missing tmdb key in prod", func(c *Config) { c.TMDB.APIKey = "" }, true},
		{"missing tmdb key in dev", func(c *Config) { c.TMDB.APIKey = ""; c.App.Env = "dev" }, false},
		{"read token instead of key", func(c *Config) { c.TMDB.APIKey = ""; c.TMDB.ReadAccessToken = "t" }, false},
		{"unknown store", func(c *Config) { c.RateLimit.Popular.Store = "etcd" }, true},
		{"redis store without addr", func(c *Config) { c.RateLimit.Popular.Store = "redis" }, true},
		{"redis store with addr", func(c *Config) {
			c.RateLimit.Popular.Store = "redis"
			c.Redis.Addr = "localhost:6379"
		}, false},
		{"trusted proxies", func(c *Config) { c.App.HTTP.TrustedProxies = []string{"10.0.0.1", "172.16.0.0/12"} }, false},
		{"bad trusted proxy", func(c *Config) { c.App.HTTP.TrustedProxies = []string{"proxy.internal"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"12h", 12 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"3600", time.Hour, false},
		{"", 0, true},
		{"0", 0, true},
		{"-1h", 0, true},
		{"xd", 0, true},
		{"forever", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpiry(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	c := &Config{CORS: CORS{
		ClientOrigin: "https://toob.example.com/",
		DevOrigins:   []string{"http://localhost:3000", "", "https://toob.example.com", "http://localhost:3000"},
	}}
	assert.Equal(t, []string{"https://toob.example.com", "http://localhost:3000"}, c.AllowedOrigins())
}

func TestAllowedOriginsProdIgnoresDevOrigins(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	c.App.Env = "prod"
	c.CORS.ClientOrigin = "https://toob.example"
	assert.Equal(t, []string{"https://toob.example"}, c.AllowedOrigins())

	c.App.Env = "dev"
	assert.Equal(t, []string{"https://toob.example", "http://localhost:3000", "http://localhost:5173"}, c.AllowedOrigins())
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyBytes      int64
	MaxInFlight       int64
	GlobalRPS         float64
	GlobalBurst       int
	// TrustedProxies 可信反代的 IP/CIDR；为空时 ClientIP 只取连接对端地址
	TrustedProxies    []string
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret    string
	Issuer    string
	Expire    string // "7d" / "12h" / 秒数
	LeewaySec int
}

type Auth struct {
	BcryptCost int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Breaker struct {
	Enable       bool
	MaxRequests  uint32
	IntervalSec  int
	TimeoutSec   int
	MinRequests  uint32
	FailureRatio float64
}

type TMDB struct {
	BaseURL            string
	APIKey             string
	ReadAccessToken    string
	Language           string
	TimeoutSec         int
	PopularLimit       int
	DetailsConcurrency int
	Breaker            Breaker
}

type CORS struct {
	ClientOrigin string
	DevOrigins   []string
	AllowMethods []string
}

type Window struct {
	Limit     int64
	WindowMin int
	Store     string // memory / redis
}

type RateLimit struct {
	Popular Window
}

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	Auth      Auth
	DB        DB
	Redis     Redis `mapstructure:"redis"`
	TMDB      TMDB  `mapstructure:"tmdb"`
	CORS      CORS  `mapstructure:"cors"`
	RateLimit RateLimit
}

var defaults = map[string]any{
	"app.name":                   "toob-api",
	"app.env":                    "dev",
	"app.http.host":              "0.0.0.0",
	"app.http.port":              4000,
	"app.http.readTimeoutSec":    10,
	"app.http.writeTimeoutSec":   30,
	"app.http.idleTimeoutSec":    60,
	"app.http.requestTimeoutSec": 15,
	"app.http.maxBodyBytes":      1 << 20,
	"app.http.maxInFlight":       300,
	"app.http.globalRPS":         200,
	"app.http.globalBurst":       400,
	"app.http.trustedProxies":    []string{},

	"log.level":           "info",
	"log.json":            false,
	"log.file.enable":     false,
	"log.file.filename":   "logs/app.log",
	"log.file.maxSizeMB":  100,
	"log.file.maxBackups": 7,
	"log.file.maxAgeDays": 30,
	"log.file.compress":   true,

	"jwt.secret":    "",
	"jwt.issuer":    "",
	"jwt.expire":    "7d",
	"jwt.leewaySec": 0,

	"auth.bcryptCost": 10,

	"db.driver":             "sqlite",
	"db.dsn":                "file:toob.db?_pragma=busy_timeout(5000)",
	"db.username":           "",
	"db.password":           "",
	"db.maxOpenConns":       20,
	"db.maxIdleConns":       10,
	"db.connMaxLifetimeMin": 30,
	"db.autoMigrate":        true,
	"db.logLevel":           "warn",

	"redis.addr":     "",
	"redis.password": "",
	"redis.db":       0,

	"tmdb.baseURL":              "https://api.themoviedb.org/3",
	"tmdb.apiKey":               "",
	"tmdb.readAccessToken":      "",
	"tmdb.language":             "fr-FR",
	"tmdb.timeoutSec":           10,
	"tmdb.popularLimit":         10,
	"tmdb.detailsConcurrency":   8,
	"tmdb.breaker.enable":       true,
	"tmdb.breaker.maxRequests":  3,
	"tmdb.breaker.intervalSec":  60,
	"tmdb.breaker.timeoutSec":   30,
	"tmdb.breaker.minRequests":  10,
	"tmdb.breaker.failureRatio": 0.6,

	"cors.clientOrigin": "http://localhost:3000",
	"cors.devOrigins":   []string{"http://localhost:3000", "http://localhost:5173"},
	"cors.allowMethods": []string{"GET", "POST", "DELETE", "OPTIONS"},

	"rateLimit.popular.limit":     100,
	"rateLimit.popular.windowMin": 15,
	"rateLimit.popular.store":     "memory",
}

// 兼容旧部署的环境变量名
var envAliases = map[string][]string{
	"app.http.port":     {"PORT"},
	"db.dsn":            {"DATABASE_URL", "MONGODB_URI"},
	"jwt.secret":        {"JWT_SECRET"},
	"jwt.expire":        {"JWT_EXPIRE"},
	"tmdb.apiKey":       {"TMDB_API_KEY"},
	"cors.clientOrigin": {"CLIENT_URL"},
	"redis.addr":        {"REDIS_ADDR"},
}

// Load 读取 yaml（不存在则只用默认值+环境变量），APP_ 前缀环境变量覆盖
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		envKey := "APP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, envKey}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("jwt.secret is required")
	}
	if _, err := ParseExpiry(c.JWT.Expire); err != nil {
		return fmt.Errorf("jwt.expire: %w", err)
	}
	if c.TMDB.APIKey == "" && c.TMDB.ReadAccessToken == "" && !c.IsDev() {
		return errors.New("tmdb.apiKey or tmdb.readAccessToken is required")
	}
	for _, p := range c.App.HTTP.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("app.http.trustedProxies: invalid address %q", p)
			}
		}
	}
	s := c.RateLimit.Popular.Store
	if s != "" && s != "memory" && s != "redis" {
		return fmt.Errorf("rateLimit.popular.store: unknown store %q", s)
	}
	if s == "redis" && c.Redis.Addr == "" {
		return errors.New("rateLimit.popular.store=redis requires redis.addr")
	}
	return nil
}

func (c *Config) IsDev() bool { return c.App.Env == "" || c.App.Env == "dev" }

func (c *Config) TokenTTL() time.Duration {
	d, err := ParseExpiry(c.JWT.Expire)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return d
}

// AllowedOrigins clientOrigin，dev 环境再加 devOrigins（去重，保持顺序）
func (c *Config) AllowedOrigins() []string {
	all := []string{c.CORS.ClientOrigin}
	if c.IsDev() {
		all = append(all, c.CORS.DevOrigins...)
	}
	seen := map[string]struct{}{}
	var out []string
	for _, o := range all {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

// ParseExpiry 支持 time.ParseDuration 格式、"7d" 天数、纯数字秒数
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("non-positive duration %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %q", s)
	}
	return d, nil
}

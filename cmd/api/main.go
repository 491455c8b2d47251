package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"toob-api/internal/core/auth"
	"toob-api/internal/core/config"
	"toob-api/internal/core/database"
	"toob-api/internal/core/logger"
	"toob-api/internal/core/ratelimit"
	"toob-api/internal/core/server"
	"toob-api/internal/core/tmdb"
	"toob-api/internal/core/validation"
	"toob-api/internal/feature/user"
	"toob-api/internal/repo"
	"toob-api/internal/service"
	"toob-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.WarnLevel)()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	defer func() { _ = database.Close(db) }()
	log.Info("database connected",
		zap.String("driver", cfg.DB.Driver),
		zap.String("dsn", database.MaskDSN(cfg.DB.DSN)))

	if cfg.DB.AutoMigrate {
		if err := user.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	var popularStore ratelimit.Store = ratelimit.NewMemory()
	if cfg.RateLimit.Popular.Store == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			// 限流存储不可用时中间件放行，这里只告警
			log.Warn("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		popularStore = ratelimit.NewRedis(rdb, cfg.App.Name+":rl:")
	}

	movies, err := tmdb.New(tmdb.Options{
		BaseURL:         cfg.TMDB.BaseURL,
		APIKey:          cfg.TMDB.APIKey,
		ReadAccessToken: cfg.TMDB.ReadAccessToken,
		Language:        cfg.TMDB.Language,
		Timeout:         time.Duration(cfg.TMDB.TimeoutSec) * time.Second,
		PopularLimit:    cfg.TMDB.PopularLimit,
		Breaker: tmdb.BreakerOpts{
			Enable:       cfg.TMDB.Breaker.Enable,
			MaxRequests:  cfg.TMDB.Breaker.MaxRequests,
			Interval:     time.Duration(cfg.TMDB.Breaker.IntervalSec) * time.Second,
			Timeout:      time.Duration(cfg.TMDB.Breaker.TimeoutSec) * time.Second,
			MinRequests:  cfg.TMDB.Breaker.MinRequests,
			FailureRatio: cfg.TMDB.Breaker.FailureRatio,
		},
	}, log.Named("tmdb"))
	if err != nil {
		log.Fatal("tmdb client", zap.Error(err))
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.TokenTTL(),
		Leeway: time.Duration(cfg.JWT.LeewaySec) * time.Second,
	}
	users := repo.NewUserRepo(db)

	r := router.NewAPIEngine(router.Deps{
		Cfg:          cfg,
		Log:          log,
		Tokens:       jwter,
		Auth:         service.NewAuthService(users, auth.Hasher{Cost: cfg.Auth.BcryptCost}, jwter, validation.New(), log),
		Lists:        service.NewUserMovieService(users, movies, cfg.TMDB.DetailsConcurrency, log),
		Movies:       movies,
		PopularStore: popularStore,
	})

	srv := server.FromConfig(cfg.App.HTTP, r)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("api starting",
		zap.String("addr", srv.Addr),
		zap.String("env", cfg.App.Env),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Ping(ctx, db); err != nil {
		l.Fatal("db ping", zap.Error(err), zap.String("dsn", database.MaskDSN(cfg.DB.DSN)))
	}
	return db
}

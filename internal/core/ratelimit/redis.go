package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis 多实例共享计数：INCR + PTTL，首次命中时设置过期
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "rl:"
	}
	return &Redis{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	k := r.prefix + key
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	ttl := pttl.Val()
	if ttl < 0 {
		// 新 key（或丢了过期时间）
		if err := r.rdb.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		ttl = window
	}
	return incr.Val(), r.now().Add(ttl), nil
}

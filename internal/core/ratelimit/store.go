// Package ratelimit 固定窗口计数器（按 key，例如客户端 IP）
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/go-chi/httprate"
)

// Store 记一次命中，返回窗口内累计次数和窗口结束时间
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Memory 单进程实现，计数交给 httprate 的本地计数器；
// 窗口按时钟对齐（now 截断到 window），过期窗口由计数器自己淘汰
type Memory struct {
	mu       sync.Mutex
	counters map[time.Duration]httprate.LimitCounter
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{counters: map[time.Duration]httprate.LimitCounter{}, now: time.Now}
}

func (m *Memory) Hit(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[window]
	if !ok {
		c = httprate.NewLocalLimitCounter(window)
		m.counters[window] = c
	}
	cur := m.now().UTC().Truncate(window)
	if err := c.Increment(key, cur); err != nil {
		return 0, time.Time{}, err
	}
	n, _, err := c.Get(key, cur, cur.Add(-window))
	if err != nil {
		return 0, time.Time{}, err
	}
	return int64(n), cur.Add(window), nil
}

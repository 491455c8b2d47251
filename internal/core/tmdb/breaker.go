package tmdb

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerOpts struct {
	Enable       bool
	MaxRequests  uint32 // half-open 状态放行数
	Interval     time.Duration
	Timeout      time.Duration // open → half-open
	MinRequests  uint32
	FailureRatio float64
}

const breakerName = "tmdb"

func newBreaker(o BreakerOpts, l *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	if !o.Enable {
		return nil
	}
	breakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: o.MaxRequests,
		Interval:    o.Interval,
		Timeout:     o.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < o.MinRequests {
				return false
			}
			ratio := float64(c.TotalFailures) / float64(c.Requests)
			return ratio >= o.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("tmdb circuit breaker state change",
				zap.String("from", from.String()), zap.String("to", to.String()))
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
		// 404 与调用方取消不算上游故障
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, errNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}

func isRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

package server

import (
	"fmt"
	"net/http"
	"time"

	"toob-api/internal/core/config"
)

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       rt,
		ReadHeaderTimeout: rt,
		WriteTimeout:      wt,
		IdleTimeout:       it,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}

// FromConfig 按 app.http 配置构建
func FromConfig(h config.HTTP, handler http.Handler) *http.Server {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return BuildServer(Addr(h.Host, h.Port), handler, sec(h.ReadTimeoutSec), sec(h.WriteTimeoutSec), sec(h.IdleTimeoutSec))
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }

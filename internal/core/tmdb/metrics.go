package tmdb

import "github.com/prometheus/client_golang/prometheus"

var (
	reqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tmdb_requests_total", Help: "Count of upstream movie API calls"},
		[]string{"endpoint", "outcome"},
	)
	reqLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tmdb_request_duration_seconds",
			Help:    "Latency of upstream movie API calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"},
	)
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "tmdb_circuit_breaker_state", Help: "0 closed, 1 half-open, 2 open"},
		[]string{"name"},
	)
)

func init() { prometheus.MustRegister(reqTotal, reqLatency, breakerState) }

const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
	outcomeRejected = "rejected"
)

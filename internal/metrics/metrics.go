// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notice"

var (
	// MessageWrites counts POST / outcomes by result (ok, forbidden, failed, bad_request).
	MessageWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_writes_total",
			Help:      "Message set write attempts by result",
		},
		[]string{"result"},
	)

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratelimit_rejections_total",
		Help:      "Requests rejected by the rate limiter",
	})

	RateLimitStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratelimit_store_errors_total",
		Help:      "Window store failures (requests admitted)",
	})

	ErrorLogLines = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errorlog_lines_total",
		Help:      "Entries appended to the day-partitioned error log",
	})

	TrackedWindows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ratelimit_windows",
		Help:      "Client windows held by the in-memory store after the last sweep",
	})
)

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	clientRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gurt",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Completed GURT requests.",
		},
		[]string{"method", "status"},
	)
	clientDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gurt",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Full request lifecycle duration: connect, handshake, TLS, exchange.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
	clientFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gurt",
			Subsystem: "client",
			Name:      "request_failures_total",
			Help:      "Failed GURT requests by failure kind.",
		},
		[]string{"method", "kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(clientRequests, clientDuration, clientFailures)
	})
}

func RecordRequest(method string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	clientRequests.WithLabelValues(method, statusLabel).Inc()
	clientDuration.WithLabelValues(method, statusLabel).Observe(duration.Seconds())
}

func RecordRequestFailure(method, kind string) {
	RegisterMetrics()
	clientFailures.WithLabelValues(method, kind).Inc()
}

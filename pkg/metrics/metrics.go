package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests handled, by route and status code",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	deviceLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "device_lookups_total",
			Help: "Per-platform device queries, by outcome",
		},
		[]string{"platform", "status"},
	)

	notificationsBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_built_total",
			Help: "Notification messages constructed from third-party alerts",
		},
		[]string{"alert_type", "status"},
	)

	pushHandoffs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_handoffs_total",
			Help: "Device tokens handed to the push SDK, by platform and outcome",
		},
		[]string{"platform", "status"},
	)
)

// GinMiddleware records request count and latency per route
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry for scraping
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func ObserveDeviceLookup(platform string, err error) {
	deviceLookups.WithLabelValues(platform, statusOf(err)).Inc()
}

func ObserveNotificationBuilt(alertType string, err error) {
	notificationsBuilt.WithLabelValues(alertType, statusOf(err)).Inc()
}

// ObservePushHandoff adds n tokens to the platform/status counter
func ObservePushHandoff(platform, status string, n int) {
	if n <= 0 {
		return
	}
	pushHandoffs.WithLabelValues(platform, status).Add(float64(n))
}

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

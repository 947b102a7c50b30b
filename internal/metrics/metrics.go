// Package metrics holds the Prometheus collectors of the blog backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blog_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// UploadSessions counts upload sessions by outcome:
	// started, completed, expired, failed, rejected.
	UploadSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_upload_sessions_total",
			Help: "Chunked upload sessions by outcome.",
		},
		[]string{"outcome"},
	)

	// UploadActive is the number of sessions currently held in memory.
	UploadActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blog_upload_sessions_active",
		Help: "Upload sessions awaiting chunks.",
	})

	UploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_upload_published_bytes_total",
		Help: "Bytes published by completed uploads.",
	})

	// Comments counts comment writes by action: created, edited, deleted,
	// conflict, depth_rejected.
	Comments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_comments_total",
			Help: "Comment operations by action.",
		},
		[]string{"action"},
	)

	// FriendChecks counts availability probes by result.
	FriendChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_friend_checks_total",
			Help: "Friend link availability checks by result.",
		},
		[]string{"result"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_cache_lookups_total",
			Help: "Cache lookups by cache name and result.",
		},
		[]string{"cache", "result"},
	)
)

// CacheHit records a cache lookup.
func CacheHit(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}

// Middleware records request count and latency. The route label is the
// matched gin pattern, which keeps ids out of the label set.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

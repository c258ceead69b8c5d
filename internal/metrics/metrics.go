// Package metrics exposes the Prometheus collectors of the adaptive service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analytics stages reported by AnalyticsFailures
const (
	StageRisk        = "risk"
	StageProfile     = "profile"
	StageFingerprint = "fingerprint"
	StagePublish     = "publish"
)

var (
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adaptive_sessions_started_total",
			Help: "Total number of adaptive sessions started",
		},
	)

	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adaptive_answers_total",
			Help: "Total number of submitted answers",
		},
		[]string{"correct"},
	)

	AnalyticsFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adaptive_analytics_failures_total",
			Help: "Best-effort analytics steps that failed after a session completed",
		},
		[]string{"stage"},
	)

	RiskIndex = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adaptive_risk_index",
			Help:    "Distribution of computed risk indices",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adaptive_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordAnswer counts one submitted answer
func RecordAnswer(correct bool) {
	AnswersTotal.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// RecordAnalyticsFailure counts one failed analytics stage
func RecordAnalyticsFailure(stage string) {
	AnalyticsFailures.WithLabelValues(stage).Inc()
}

// ObserveRiskIndex records a freshly computed risk index
func ObserveRiskIndex(index int) {
	RiskIndex.Observe(float64(index))
}

// Middleware times every request by its route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

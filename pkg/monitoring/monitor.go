package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 15},
		},
		[]string{"method", "endpoint"},
	)

	PredictionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_predictions_total",
			Help: "Risk predictions by resulting risk level",
		},
		[]string{"risk_level"},
	)

	RecommendationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_generated_total",
			Help: "Generated recommendations by source and whether a fallback was used",
		},
		[]string{"source", "fallback"},
	)

	IntentCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_intents_total",
			Help: "Classified chatbot queries by module and intent",
		},
		[]string{"module", "intent"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(PredictionCounter)
		prometheus.MustRegister(RecommendationCounter)
		prometheus.MustRegister(IntentCounter)
	})
}

func RecordPrediction(riskLevel string) {
	PredictionCounter.WithLabelValues(riskLevel).Inc()
}

func RecordRecommendation(source string, fallback bool) {
	RecommendationCounter.WithLabelValues(source, strconv.FormatBool(fallback)).Inc()
}

func RecordIntent(module, intent string) {
	IntentCounter.WithLabelValues(module, intent).Inc()
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

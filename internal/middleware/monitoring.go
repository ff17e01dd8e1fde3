package middleware

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
			Name: "antistock_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "antistock_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	checkoutOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antistock_checkout_operations_total",
			Help: "Checkout dispatches by payment method and outcome",
		},
		[]string{"method", "success"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antistock_webhook_events_total",
			Help: "Inbound provider webhooks by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
)

// Monitoring mesure chaque requête HTTP (compteur + latence).
func Monitoring() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// RecordCheckout comptabilise un dispatch de paiement.
func RecordCheckout(method string, success bool) {
	checkoutOperations.WithLabelValues(method, strconv.FormatBool(success)).Inc()
}

// RecordWebhook comptabilise un webhook entrant.
// outcome: paid, failed, ignored, anomaly, rejected
func RecordWebhook(provider, outcome string) {
	webhookEvents.WithLabelValues(provider, outcome).Inc()
}

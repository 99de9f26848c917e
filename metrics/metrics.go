// Package metrics exposes Prometheus counters for the order pipeline and
// the /metrics handler that serves them.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_orders_created_total",
			Help: "Total number of orders placed, by payment method",
		},
		[]string{"payment_method"},
	)

	OrderStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_order_status_changes_total",
			Help: "Total number of order status transitions, by new status",
		},
		[]string{"status"},
	)

	PaymentsCaptured = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_payments_captured_total",
			Help: "Total number of successful card captures",
		},
	)

	PaymentFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_payment_failures_total",
			Help: "Total number of rejected or timed out card captures",
		},
	)

	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pos_stream_clients",
			Help: "Currently connected kitchen display stream clients",
		},
	)
)

// Register installs all collectors on the default registry. Call once at
// startup.
func Register() {
	prometheus.MustRegister(
		OrdersCreated,
		OrderStatusChanges,
		PaymentsCaptured,
		PaymentFailures,
		StreamClients,
	)
}

// Handler wraps promhttp for mounting on the gin router.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

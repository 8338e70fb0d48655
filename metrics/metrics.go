// Package metrics exposes Prometheus instrumentation for HTTP traffic and checkout.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopnest",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shopnest",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shopnest",
		Name:      "orders_placed_total",
		Help:      "Orders committed by checkout.",
	})

	unitsSold = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shopnest",
		Name:      "units_sold_total",
		Help:      "Product units sold through checkout.",
	})

	revenue = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shopnest",
		Name:      "revenue_total",
		Help:      "Order totals committed by checkout.",
	})

	checkoutRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopnest",
		Name:      "checkout_rejections_total",
		Help:      "Checkouts rejected, by reason.",
	}, []string{"reason"})
)

// Rejection reasons.
const (
	ReasonInvalid           = "invalid"
	ReasonProductMissing    = "product_missing"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonError             = "error"
)

// Recorder receives checkout outcomes.
type Recorder interface {
	OrderPlaced(units int, total float64)
	CheckoutRejected(reason string)
}

// Prometheus records checkout outcomes into the process registry.
type Prometheus struct{}

func (Prometheus) OrderPlaced(units int, total float64) {
	ordersPlaced.Inc()
	unitsSold.Add(float64(units))
	revenue.Add(total)
}

func (Prometheus) CheckoutRejected(reason string) {
	checkoutRejections.WithLabelValues(reason).Inc()
}

// Middleware counts and times every request by its route template. Errors
// are rendered here so the final status is known, then passed on for outer
// middleware to log; the error handler skips committed responses.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus exposition format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

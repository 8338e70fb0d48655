package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRouteAndStatus(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/things/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "no")
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/things/:id", "418"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/things/:id", "418"))
	assert.Equal(t, before+1, after)
}

func TestMiddlewarePassesErrorsOutward(t *testing.T) {
	var seen error
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			seen = next(c)
			return seen
		}
	})
	e.Use(Middleware())
	e.GET("/broken", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "later")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broken", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "later"))
	var httpErr *echo.HTTPError
	require.ErrorAs(t, seen, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
}

func TestRecorder(t *testing.T) {
	before := testutil.ToFloat64(unitsSold)
	Prometheus{}.OrderPlaced(3, 25)
	assert.Equal(t, before+3, testutil.ToFloat64(unitsSold))

	Prometheus{}.CheckoutRejected(ReasonInsufficientStock)
	assert.GreaterOrEqual(t, testutil.ToFloat64(checkoutRejections.WithLabelValues(ReasonInsufficientStock)), 1.0)
}

func TestHandlerExposesMetrics(t *testing.T) {
	e := echo.New()
	e.GET("/metrics", Handler())
	Prometheus{}.CheckoutRejected(ReasonInvalid)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "shopnest_checkout_rejections_total"))
}

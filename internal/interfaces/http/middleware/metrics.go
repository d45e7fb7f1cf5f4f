package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockflow/backend/internal/infrastructure/telemetry"
)

// unmatchedRoute labels requests that matched no route
const unmatchedRoute = "unknown"

// HTTPRecorder receives one observation per finished request
type HTTPRecorder interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
	RequestStarted() func()
}

var _ HTTPRecorder = (*telemetry.Metrics)(nil)

// HTTPMetrics records request count, latency and in-flight requests.
// A nil recorder yields a pass-through middleware.
func HTTPMetrics(recorder HTTPRecorder) gin.HandlerFunc {
	if recorder == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		done := recorder.RequestStarted()
		defer done()

		c.Next()

		recorder.ObserveHTTP(c.Request.Method, routePattern(c), c.Writer.Status(), time.Since(start))
	}
}

// routePattern returns the matched template (e.g. "/api/v1/products/:id"),
// never the raw path, to keep label cardinality bounded.
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stockflow/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_RecordsRouteTemplate(t *testing.T) {
	metrics := telemetry.NewMetrics("test")

	router := gin.New()
	router.Use(HTTPMetrics(metrics))
	router.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, httptest.NewRequest(http.MethodGet, "/products/1", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/products/2", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	expected := `
# HELP test_http_requests_total Total number of HTTP requests handled.
# TYPE test_http_requests_total counter
test_http_requests_total{method="GET",route="/products/:id",status="200"} 2
test_http_requests_total{method="GET",route="unknown",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "test_http_requests_total"))
}

func TestHTTPMetrics_InFlightReturnsToZero(t *testing.T) {
	metrics := telemetry.NewMetrics("test")

	var during float64
	router := gin.New()
	router.Use(HTTPMetrics(metrics))
	router.GET("/slow", func(c *gin.Context) {
		families, err := metrics.Registry().Gather()
		require.NoError(t, err)
		for _, mf := range families {
			if mf.GetName() == "test_http_requests_in_flight" {
				during = mf.GetMetric()[0].GetGauge().GetValue()
			}
		}
		c.Status(http.StatusOK)
	})

	serve(router, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, float64(1), during)
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "test_http_requests_in_flight" {
			assert.Equal(t, float64(0), mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
}

func TestHTTPMetrics_NilRecorder(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/test", nil)).Code)
}

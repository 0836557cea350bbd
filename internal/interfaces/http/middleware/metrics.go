package middleware

import (
	"time"

	"github.com/erp/tempcredit/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// HTTPMetrics records request latency by route pattern and status.
// A nil metrics set yields a pass-through middleware.
func HTTPMetrics(metrics *telemetry.CreditMetrics) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveRequest(c.Request.Method, getRoutePattern(c), c.Writer.Status(), time.Since(start))
	}
}

// getRoutePattern returns the matched route (e.g. "/api/v1/temp-credit/customers/:id")
// so label cardinality stays bounded
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

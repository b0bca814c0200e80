package middleware

import (
	"time"

	"github.com/Payphone-Digital/tracker/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request count, latency and in-flight requests. A nil m is a pass-through.
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Observe(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

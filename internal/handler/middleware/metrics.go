package middleware

import (
	"strconv"
	"time"

	"checkout-core/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware labels by route template so path ids do not explode
// cardinality.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	}
}

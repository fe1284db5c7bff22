package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"travelbook/services/support-api/internal/infrastructure/metrics"
)

// Metrics records per-request counters and latency. Uses the route
// template rather than the raw path to keep label cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}

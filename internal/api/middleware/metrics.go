package middleware

import (
	"strconv"
	"time"

	"github.com/fisker/fleetops-backend/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware Prometheus请求指标中间件
// endpoint 使用路由模板（/api/spare-part-requests/:id）而不是实际路径，避免标签爆炸
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.APIRequestsTotal.WithLabelValues(
			c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.APIRequestDuration.WithLabelValues(
			c.Request.Method, endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

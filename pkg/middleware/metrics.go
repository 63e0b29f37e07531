package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pizzashop/pkg/metrics"
)

// GinMetricsMiddleware 记录请求数与耗时，path 取路由模板避免高基数
func GinMetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

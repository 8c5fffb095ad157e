package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver 由 metrics.Metrics 实现
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Metrics 使用路由模板作为标签，避免 id 导致的基数膨胀
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obs.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

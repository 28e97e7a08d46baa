package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"urbaplan/pkg/logger"
)

// RequestObserver HTTP 指标回调（metrics.Metrics 实现）
type RequestObserver interface {
	HTTPRequest(route string, code string)
}

// Access 访问日志与请求计数；路由取注册模板，未匹配时为 unmatched
func Access(log logger.Logger, observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		if observer != nil {
			observer.HTTPRequest(route, strconv.Itoa(code))
		}
		log.Infof(c.Request.Context(), "[HTTP] %s %s %d %v", c.Request.Method, route, code, time.Since(start))
	}
}

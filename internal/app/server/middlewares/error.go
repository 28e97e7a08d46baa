package middlewares

import (
	"github.com/gin-gonic/gin"

	"urbaplan/internal/app/pkg/ginx"
	"urbaplan/pkg/logger"
)

// ErrorHandler 统一错误处理中间件
// 捕获 panic 和 handler 通过 c.Error 登记的业务错误
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf(c.Request.Context(), "[HTTP] Panic recovered: %s %s: %v", c.Request.Method, c.Request.URL.Path, r)
				c.Abort()
				ginx.InternalError(c, "internal error")
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			log.Warnf(c.Request.Context(), "[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
			ginx.FromError(c, err)
		}
	}
}

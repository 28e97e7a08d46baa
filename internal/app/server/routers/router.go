package routers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"urbaplan/internal/app/server/handlers/feasibility"
	"urbaplan/internal/app/server/handlers/label"
	"urbaplan/internal/app/server/handlers/zone"
	"urbaplan/internal/app/server/middlewares"
	"urbaplan/pkg/logger"
)

// Options 路由依赖
type Options struct {
	Logger          logger.Logger
	Observer        middlewares.RequestObserver // 可为空
	Metrics         http.Handler                // /metrics，可为空
	LabelsAdmin     bool                        // 是否注册标签刷新接口
	ServiceName     string
	FeasibilityHTTP *feasibility.FeasibilityHandler
	ZoneHTTP        *zone.ZoneHandler
	LabelHTTP       *label.LabelHandler
}

// SetupRoutes 配置所有路由，使用 Route Group 分类
func SetupRoutes(opts Options) *gin.Engine {
	r := gin.New()

	r.Use(middlewares.RequestID())
	r.Use(middlewares.Access(opts.Logger, opts.Observer))
	r.Use(middlewares.ErrorHandler(opts.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": opts.ServiceName,
			"message": "Service is running",
		})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/feasibility", opts.FeasibilityHTTP.Evaluate)

		jobs := v1.Group("/feasibility/jobs")
		{
			jobs.POST("", opts.FeasibilityHTTP.Submit)
			jobs.GET("/:id", opts.FeasibilityHTTP.Get)
		}

		v1.GET("/zones/:id/rules", opts.ZoneHTTP.Rules)
		v1.POST("/context", opts.ZoneHTTP.Context)

		labels := v1.Group("/labels")
		{
			labels.POST("/batch", opts.LabelHTTP.Batch)
			labels.GET("/:type/:code", opts.LabelHTTP.Get)
			if opts.LabelsAdmin {
				labels.POST("/refresh", opts.LabelHTTP.Refresh)
			}
		}
	}

	return r
}

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolmanager/internal/app/controllers"
	"github.com/yigit/schoolmanager/internal/app/schema"
	"github.com/yigit/schoolmanager/internal/pkg/metrics"
)

// MetricsOptions enables the Prometheus endpoint when Collector is set
type MetricsOptions struct {
	Collector *metrics.Metrics
	Path      string
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	recordController *controllers.RecordController,
	systemController *controllers.SystemController,
	metricsOpts MetricsOptions,
) {
	router.GET("/", systemController.Root)

	if metricsOpts.Collector != nil {
		path := metricsOpts.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, metricsOpts.Collector.Handler())
	}

	// API version group
	v1 := router.Group("/api/v1")
	v1.GET("/health", systemController.Health)
	v1.GET("/schema", systemController.Schema)

	// One group per category, all served by the same generic controller
	for _, category := range schema.Categories() {
		name := string(category)
		group := v1.Group("/" + name)
		{
			group.GET("", recordController.List(name))
			group.GET("/:codigo", recordController.Get(name))
			group.POST("", recordController.Insert(name))
			group.PUT("/:codigo", recordController.Edit(name))
			group.DELETE("/:codigo", recordController.Delete(name))
		}
	}
}

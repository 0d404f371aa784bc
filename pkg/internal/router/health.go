package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/internal/handle"
)

// RegisterHealthRoutes 注册健康检查路由.
func RegisterHealthRoutes(api *gin.RouterGroup) {
	api.GET("/health", handle.Health)

	healthRoutes := api.Group("/health")
	{
		healthRoutes.GET("/db", handle.HealthDB)
		healthRoutes.GET("/s3", handle.HealthS3)
		healthRoutes.GET("/mq", handle.HealthMQ)
	}
}

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/middleware"
)

// RegisterStreamRoutes 注册流式路由.
// 使用可选认证：public 可见性允许匿名播放，其余在 service 层按租户校验；
// 媒体元素无法设置请求头，令牌经 token 查询参数携带.
func RegisterStreamRoutes(e *gin.Engine, h *Handlers) {
	stream := e.Group("/api/stream")
	stream.Use(
		middleware.CircuitBreakerMiddleware(configs.GetConfig().CircuitBreaker),
		middleware.OptionalAuthMiddleware(h.Tokens),
	)

	stream.GET("/:id", h.Stream.Video)
	stream.GET("/:id/thumbnail", h.Stream.Thumbnail)
}

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/middleware"
)

// RegisterVideoRoutes 注册视频路由. 上传要求 editor/admin 且受按主体的上传窗口限流；
// 其余操作的租户/归属检查在 service 层完成.
func RegisterVideoRoutes(api *gin.RouterGroup, h *Handlers, rl *configs.RateLimitConfig) {
	videos := api.Group("/videos")
	videos.Use(middleware.AuthMiddleware(h.Tokens))

	uploadLimiter := middleware.FixedWindowMiddleware("upload", rl.Upload, h.KV)

	videos.POST("", uploadLimiter,
		middleware.RequireRole(model.RoleEditor, model.RoleAdmin), h.Videos.Upload)
	videos.GET("", h.Videos.List)
	videos.GET("/:id", h.Videos.Get)
	videos.PUT("/:id", h.Videos.Update)
	videos.DELETE("/:id", h.Videos.Delete)
	videos.GET("/:id/status", h.Videos.Status)
}

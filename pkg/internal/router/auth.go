package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/middleware"
)

// RegisterAuthRoutes 注册认证路由.
// 注册/登录/刷新 挂严格固定窗口限流（防爆破）；登出与 me 需要访问令牌.
func RegisterAuthRoutes(api *gin.RouterGroup, h *Handlers, rl *configs.RateLimitConfig) {
	auth := api.Group("/auth")

	strict := middleware.FixedWindowMiddleware("auth", rl.Auth, h.KV)

	auth.POST("/register", strict, h.Auth.Register)
	auth.POST("/login", strict, h.Auth.Login)
	auth.POST("/refresh", strict, h.Auth.Refresh)

	auth.POST("/logout", middleware.AuthMiddleware(h.Tokens), h.Auth.Logout)
	auth.GET("/me", middleware.AuthMiddleware(h.Tokens), h.Auth.Me)
}

// Package router 管理路由配置，将路径与处理器绑定到 gin 引擎并组合中间件.
//
// 受保护路由的中间件顺序（外层在 app 包装配）：
// recovery → 请求日志 → CORS → 请求体限制 → 全局限流 → 认证 → 角色/租户守卫 → 处理器.
// 分类限流（auth 严格窗口、upload 按主体窗口）挂在对应路由组上.
package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/handle"
	"github.com/yeisme/vidvault/pkg/internal/storage/kv"
	"github.com/yeisme/vidvault/pkg/token"
)

// Handlers 由应用层注入的处理器集合与其进程级依赖.
type Handlers struct {
	Auth   *handle.AuthHandlers
	Videos *handle.VideoHandlers
	Stream *handle.StreamHandlers
	WS     *handle.WSHandlers
	Tokens *token.Service
	KV     *kv.Client
}

// Register 将全部路由绑定到引擎.
func Register(e *gin.Engine, h *Handlers) {
	cfg := configs.GetConfig()

	api := e.Group("/api")

	// JSON 响应启用 gzip；字节流端点排除（区间语义与压缩不兼容）
	api.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`^/api/stream/.*`})))

	RegisterHealthRoutes(api)
	RegisterAuthRoutes(api, h, &cfg.RateLimit)
	RegisterVideoRoutes(api, h, &cfg.RateLimit)
	RegisterStreamRoutes(e, h)
	RegisterWSRoute(e, h)
	RegisterSwaggerRoute(e)
}

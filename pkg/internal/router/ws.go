package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWSRoute 注册实时推送握手路由. 认证在处理器内完成（需要读取声明的过期时间）.
func RegisterWSRoute(e *gin.Engine, h *Handlers) {
	e.GET("/ws", h.WS.Connect)
}

// Package api 注册 HTTP 接口到 gin 引擎.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/internal/router"
)

// RegisterGroup 注册全部路由组到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine, h *router.Handlers) *gin.Engine {
	router.Register(e, h)

	return e
}

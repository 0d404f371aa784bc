package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/internal/types"
	nlog "github.com/yeisme/vidvault/pkg/log"
)

// RecoveryMiddleware 捕获 panic，记录完整上下文，对外只返回通用错误信封.
// 堆栈只进日志，生产环境不泄露给客户端.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		nlog.Logger().Error().
			Interface("panic", recovered).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request panicked")

		c.AbortWithStatusJSON(http.StatusInternalServerError, types.APIError{
			Error: "internal server error",
		})
	})
}

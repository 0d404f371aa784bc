package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/configs"
)

// CORSMiddleware 跨域中间件. Origin 固定为前端地址，允许携带凭证（刷新 cookie）.
func CORSMiddleware(cfg configs.CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Origin},
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           time.Duration(cfg.MaxAgeSeconds) * time.Second,
	})
}

// Package middleware 提供角色守卫.
package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/internal/types"
)

// RequireRole 要求当前主体的角色在允许集合内，否则 403.
// 必须排在 AuthMiddleware 之后.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.APIError{Error: "authentication required"})
			return
		}

		if !slices.Contains(roles, p.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, types.APIError{Error: "insufficient role"})
			return
		}

		c.Next()
	}
}

// RequireMinRole 要求最小角色（按 viewer < editor < admin 排序）.
func RequireMinRole(minRole model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.APIError{Error: "authentication required"})
			return
		}

		if p.Role.Level() < minRole.Level() {
			c.AbortWithStatusJSON(http.StatusForbidden, types.APIError{Error: "insufficient role"})
			return
		}

		c.Next()
	}
}

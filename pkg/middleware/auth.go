package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/internal/service"
	"github.com/yeisme/vidvault/pkg/internal/types"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/token"
)

const (
	// AccessCookieName 访问令牌 cookie（客户端可选发送）.
	AccessCookieName = "access_token"
	// RefreshCookieName 刷新令牌 cookie（http-only）.
	RefreshCookieName = "refresh_token"
	// TokenQueryParam 查询参数令牌. 媒体元素发不了自定义请求头，
	// 流式端点依赖这种形式.
	TokenQueryParam = "token"

	principalKey = "principal"
)

// ResolveToken 按 优先级 Bearer 头 → cookie → query 参数 提取访问令牌.
func ResolveToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}

	if v, err := c.Cookie(AccessCookieName); err == nil && v != "" {
		return v
	}

	return c.Query(TokenQueryParam)
}

// AuthMiddleware 必选认证：无令牌或验证失败直接 401.
// 签名验证通过后还会加载用户行并检查 active，停用用户即使持有效令牌也被拒绝.
func AuthMiddleware(tokens *token.Service) gin.HandlerFunc {
	return authMiddleware(tokens, false)
}

// OptionalAuthMiddleware 可选认证：没有令牌时以匿名身份继续，
// 供允许 public 可见性的路由使用. 携带了令牌但验证失败仍然 401.
func OptionalAuthMiddleware(tokens *token.Service) gin.HandlerFunc {
	return authMiddleware(tokens, true)
}

func authMiddleware(tokens *token.Service, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ResolveToken(c)
		if raw == "" {
			if optional {
				c.Next()
				return
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, types.APIError{Error: "authentication required"})

			return
		}

		claims, err := tokens.VerifyAccess(raw)
		if err != nil {
			resp := types.APIError{Error: "invalid token"}
			if errors.Is(err, token.ErrExpired) {
				resp = types.APIError{Error: "token expired", Code: types.CodeTokenExpired}
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, resp)

			return
		}

		user, err := service.NewAuthService(c.Request.Context(), tokens).GetActiveUser(c.Request.Context(), claims.Subject)
		if err != nil {
			nlog.Logger().Warn().Err(err).Str("subject", claims.Subject).Msg("token subject rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.APIError{Error: "invalid token"})

			return
		}

		c.Set(principalKey, &types.Principal{
			SubjectID: user.ID,
			Role:      user.Role,
			TenantID:  user.OrganizationID,
		})

		c.Next()
	}
}

// GetPrincipal 从 gin.Context 获取当前请求主体，匿名请求返回 nil.
func GetPrincipal(c *gin.Context) *types.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok2 := v.(*types.Principal); ok2 {
			return p
		}
	}

	return nil
}

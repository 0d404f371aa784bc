package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/service"
	"github.com/yeisme/vidvault/pkg/internal/types"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/middleware"
	"github.com/yeisme/vidvault/pkg/rule"
	"github.com/yeisme/vidvault/pkg/token"
)

// AuthHandlers 认证相关处理器.
type AuthHandlers struct {
	Tokens *token.Service
}

// setRefreshCookie 下发刷新令牌 cookie：http-only、SameSite=Strict、生产环境 Secure.
func (h *AuthHandlers) setRefreshCookie(c *gin.Context, refresh string) {
	cfg := configs.GetConfig().Auth

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.RefreshCookieName, refresh,
		int(h.Tokens.RefreshTTL().Seconds()), "/", "", cfg.CookieSecure, true)
}

// clearRefreshCookie 清除刷新令牌 cookie.
func (h *AuthHandlers) clearRefreshCookie(c *gin.Context) {
	cfg := configs.GetConfig().Auth

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.RefreshCookieName, "", -1, "/", "", cfg.CookieSecure, true)
}

// Register 注册新用户.
//
//	@Summary		注册
//	@Description	注册新用户；携带 organization_name 时创建组织并成为管理员
//	@Tags			认证
//	@Accept			json
//	@Produce		json
//	@Param			req	body		types.RegisterRequest	true	"注册请求"
//	@Success		201	{object}	types.AuthResponse
//	@Failure		400	{object}	types.APIError	"请求参数错误"
//	@Failure		409	{object}	types.APIError	"邮箱或组织名已占用"
//	@Router			/api/auth/register [post]
func (h *AuthHandlers) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.APIError{Error: err.Error()})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	svc := service.NewAuthService(c.Request.Context(), h.Tokens)

	user, err := svc.Register(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	access, refresh, err := svc.IssueTokens(c.Request.Context(), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.setRefreshCookie(c, refresh)
	c.JSON(http.StatusCreated, types.AuthResponse{User: user, AccessToken: access})
}

// Login 登录.
//
//	@Summary		登录
//	@Tags			认证
//	@Accept			json
//	@Produce		json
//	@Param			req	body		types.LoginRequest	true	"登录请求"
//	@Success		200	{object}	types.AuthResponse
//	@Failure		401	{object}	types.APIError	"凭证无效"
//	@Router			/api/auth/login [post]
func (h *AuthHandlers) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.APIError{Error: err.Error()})
		return
	}

	svc := service.NewAuthService(c.Request.Context(), h.Tokens)

	user, err := svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	access, refresh, err := svc.IssueTokens(c.Request.Context(), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.setRefreshCookie(c, refresh)
	c.JSON(http.StatusOK, types.AuthResponse{User: user, AccessToken: access})
}

// Refresh 用刷新 cookie 换新令牌对；旧刷新令牌立即作废.
//
//	@Summary		刷新访问令牌
//	@Tags			认证
//	@Produce		json
//	@Success		200	{object}	types.RefreshResponse
//	@Failure		401	{object}	types.APIError	"刷新令牌无效或被重放"
//	@Router			/api/auth/refresh [post]
func (h *AuthHandlers) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(middleware.RefreshCookieName)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, types.APIError{Error: "missing refresh token"})
		return
	}

	svc := service.NewAuthService(c.Request.Context(), h.Tokens)

	user, access, newRefresh, err := svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.clearRefreshCookie(c)
		respondServiceError(c, err)

		return
	}

	h.setRefreshCookie(c, newRefresh)
	c.JSON(http.StatusOK, types.RefreshResponse{AccessToken: access, User: user})
}

// Logout 退出登录：清空刷新令牌单槽并删除 cookie.
//
//	@Summary		退出登录
//	@Tags			认证
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Router			/api/auth/logout [post]
func (h *AuthHandlers) Logout(c *gin.Context) {
	p := middleware.GetPrincipal(c)

	svc := service.NewAuthService(c.Request.Context(), h.Tokens)
	if err := svc.Logout(c.Request.Context(), p.SubjectID); err != nil {
		nlog.Logger().Warn().Err(err).Str("user", p.SubjectID).Msg("logout failed")
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{})
}

// Me 当前用户信息.
//
//	@Summary		当前用户
//	@Tags			认证
//	@Produce		json
//	@Success		200	{object}	types.MeResponse
//	@Failure		401	{object}	types.APIError
//	@Router			/api/auth/me [get]
func (h *AuthHandlers) Me(c *gin.Context) {
	p := middleware.GetPrincipal(c)

	svc := service.NewAuthService(c.Request.Context(), h.Tokens)

	user, err := svc.GetActiveUser(c.Request.Context(), p.SubjectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.MeResponse{User: user})
}

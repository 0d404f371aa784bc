package types

import (
	"github.com/yeisme/vidvault/pkg/internal/model"
)

// RegisterRequest 注册请求.
// 携带 OrganizationName 时创建新组织并成为其管理员；
// 省略时挂靠默认组织，角色取 Role（缺省 editor）.
type RegisterRequest struct {
	Email            string `json:"email"             binding:"required" rule:"required,email"`
	Password         string `json:"password"          binding:"required" rule:"required,min=8,max=72"`
	Name             string `json:"name"              binding:"required" rule:"required,max=200"`
	OrganizationName string `json:"organization_name" rule:"omitempty,max=200"`
	Role             string `json:"role"              rule:"omitempty,oneof=viewer editor"`
}

// LoginRequest 登录请求.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required" rule:"required,email"`
	Password string `json:"password" binding:"required" rule:"required"`
}

// AuthResponse 注册/登录响应；刷新令牌经由 http-only cookie 下发.
type AuthResponse struct {
	User        *model.User `json:"user"`
	AccessToken string      `json:"access_token"`
}

// RefreshResponse 刷新响应.
type RefreshResponse struct {
	AccessToken string      `json:"access_token"`
	User        *model.User `json:"user"`
}

// MeResponse 当前用户信息.
type MeResponse struct {
	User *model.User `json:"user"`
}

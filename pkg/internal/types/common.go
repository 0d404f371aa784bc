// Package types 定义 HTTP 层的请求/响应结构与通用载体.
package types

import (
	"github.com/yeisme/vidvault/pkg/internal/model"
)

// APIError 统一的错误响应信封.
type APIError struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// CodeTokenExpired 访问令牌过期时返回，提示客户端走刷新流程.
const CodeTokenExpired = "TOKEN_EXPIRED"

// Pagination 列表分页信息.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Principal 已认证请求的主体信息，匿名请求为 nil.
type Principal struct {
	SubjectID string     `json:"subject_id"`
	Role      model.Role `json:"role"`
	TenantID  string     `json:"tenant_id"`
}

// IsAdmin 是否为租户管理员.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == model.RoleAdmin
}

package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role 用户角色，数值越大权限越高.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// ParseRole 从字符串解析角色，未知值降级为 viewer.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "editor":
		return RoleEditor
	default:
		return RoleViewer
	}
}

// Level 返回角色的序数，用于最小角色比较.
func (r Role) Level() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	default:
		return 1
	}
}

// User 用户模型. 每个用户恰好归属一个组织，组织在创建后不可变更.
// PasswordHash 只存加盐哈希；RefreshTokenCurrent 是刷新令牌的单槽存储，
// 刷新时以 CAS 方式轮换，检测令牌重放.
type User struct {
	ID                  string     `gorm:"primaryKey;size:26"   json:"id"`
	Email               string     `gorm:"size:255;uniqueIndex" json:"email"`
	PasswordHash        string     `gorm:"size:100"             json:"-"`
	Name                string     `gorm:"size:200"             json:"name"`
	Role                Role       `gorm:"size:16"              json:"role"`
	OrganizationID      string     `gorm:"size:26;index"        json:"organization_id"`
	Active              bool       `gorm:"default:true"         json:"active"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	RefreshTokenCurrent string     `gorm:"size:1024" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

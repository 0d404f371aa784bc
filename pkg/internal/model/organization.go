package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
)

// OrgSettings 组织级配额与上传限制，覆盖全局默认.
type OrgSettings struct {
	MaxStorageGB   int64 `json:"max_storage_gb"`
	MaxVideoSizeMB int64 `json:"max_video_size_mb"`
	// AllowedFormatsJSON 允许的内容类型列表，JSON 字符串存储
	AllowedFormatsJSON string `gorm:"type:text" json:"-"`
}

// AllowedFormats 解出允许的内容类型列表，空值表示沿用全局默认.
func (s *OrgSettings) AllowedFormats() []string {
	if s.AllowedFormatsJSON == "" {
		return nil
	}

	var out []string
	if err := sonic.UnmarshalString(s.AllowedFormatsJSON, &out); err != nil {
		return nil
	}

	return out
}

// SetAllowedFormats 写入允许的内容类型列表.
func (s *OrgSettings) SetAllowedFormats(formats []string) {
	if len(formats) == 0 {
		s.AllowedFormatsJSON = ""
		return
	}

	b, err := sonic.Marshal(formats)
	if err != nil {
		return
	}

	s.AllowedFormatsJSON = string(b)
}

// Organization 组织（租户）模型，所有视频与用户都归属于一个组织.
// OwnerID 在创建者的用户行写入后回填.
type Organization struct {
	ID       string      `gorm:"primaryKey;size:26"           json:"id"`
	Name     string      `gorm:"size:200"                     json:"name"`
	Slug     string      `gorm:"size:200;uniqueIndex"         json:"slug"`
	OwnerID  string      `gorm:"size:26"                      json:"owner_id,omitempty"`
	Settings OrgSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	Active   bool        `gorm:"default:true"                 json:"active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 将组织名归一化为小写连字符 slug.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugUnsafe.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}

package model

import (
	"slices"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
)

// VideoStatus 处理状态. 状态迁移构成 DAG：
// uploading → processing → {completed, failed}；failed 在删除或手动重新入队前是终态.
type VideoStatus string

const (
	VideoStatusUploading  VideoStatus = "uploading"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// Visibility 可见性策略.
type Visibility string

const (
	VisibilityPrivate      Visibility = "private"
	VisibilityOrganization Visibility = "organization"
	VisibilityPublic       Visibility = "public"
)

// SensitivityStatus 敏感度审核状态.
type SensitivityStatus string

const (
	SensitivityPending SensitivityStatus = "pending"
	SensitivitySafe    SensitivityStatus = "safe"
	SensitivityFlagged SensitivityStatus = "flagged"
)

// SensitivityLevel 敏感度等级.
type SensitivityLevel string

const (
	SensitivityLow     SensitivityLevel = "low"
	SensitivityMedium  SensitivityLevel = "medium"
	SensitivityHigh    SensitivityLevel = "high"
	SensitivityUnknown SensitivityLevel = "unknown"
)

// VideoMetadata 探测得到的媒体元数据.
type VideoMetadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Codec           string  `gorm:"size:64"  json:"codec"`
	Bitrate         int64   `json:"bitrate"`
	FrameRate       float64 `json:"frame_rate"`
	AudioCodec      string  `gorm:"size:64"  json:"audio_codec"`
	Format          string  `gorm:"size:64"  json:"format"`
}

// SensitivityInfo 敏感度评分结果与人工复核信息.
type SensitivityInfo struct {
	Level           SensitivityLevel  `gorm:"size:16;default:unknown" json:"level"`
	Score           float64           `json:"score"`
	Status          SensitivityStatus `gorm:"size:16;default:pending;index" json:"status"`
	CategoriesJSON  string            `gorm:"type:text" json:"-"`
	AnalysisDetails string            `gorm:"type:text" json:"analysis_details,omitempty"`
	AnalyzedAt      *time.Time        `json:"analyzed_at,omitempty"`
	ReviewedBy      string            `gorm:"size:26"   json:"reviewed_by,omitempty"`
	ReviewNotes     string            `gorm:"type:text" json:"review_notes,omitempty"`
}

// Categories 解出命中的分类列表.
func (s *SensitivityInfo) Categories() []string {
	if s.CategoriesJSON == "" {
		return nil
	}

	var out []string
	if err := sonic.UnmarshalString(s.CategoriesJSON, &out); err != nil {
		return nil
	}

	return out
}

// SetCategories 写入命中的分类列表.
func (s *SensitivityInfo) SetCategories(categories []string) {
	if len(categories) == 0 {
		s.CategoriesJSON = ""
		return
	}

	b, err := sonic.Marshal(categories)
	if err != nil {
		return
	}

	s.CategoriesJSON = string(b)
}

// Video 视频模型. 行由上传处理器创建，处理期间只有 Worker 改写
// progress/metadata/thumbnail/sensitivity/status；ViewCount 由流式端异步累加.
// StorageKey 全局唯一，先写对象存储再落库.
type Video struct {
	ID               string `gorm:"primaryKey;size:26"   json:"id"`
	Title            string `gorm:"size:200"             json:"title"`
	Description      string `gorm:"type:text"            json:"description"`
	OriginalFilename string `gorm:"size:512"             json:"original_filename"`
	StorageKey       string `gorm:"size:128;uniqueIndex" json:"storage_key"`
	FileSize         int64  `json:"file_size"`
	Format           string `gorm:"size:64"              json:"format"`

	OrganizationID string `gorm:"size:26;index" json:"organization_id"`
	UploadedBy     string `gorm:"size:26;index" json:"uploaded_by"`

	Visibility         Visibility `gorm:"size:16;default:private" json:"visibility"`
	AllowedUserIDsJSON string     `gorm:"type:text" json:"-"`

	Status             VideoStatus `gorm:"size:16;index" json:"status"`
	ProcessingProgress int         `json:"processing_progress"`

	Metadata     VideoMetadata   `gorm:"embedded;embeddedPrefix:meta_" json:"metadata"`
	ThumbnailKey string          `gorm:"size:128" json:"thumbnail_key,omitempty"`
	Sensitivity  SensitivityInfo `gorm:"embedded;embeddedPrefix:sensitivity_" json:"sensitivity"`

	ViewCount    int64      `json:"view_count"`
	LastViewedAt *time.Time `json:"last_viewed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AllowedUserIDs 解出私有视频的额外授权用户列表.
func (v *Video) AllowedUserIDs() []string {
	if v.AllowedUserIDsJSON == "" {
		return nil
	}

	var out []string
	if err := sonic.UnmarshalString(v.AllowedUserIDsJSON, &out); err != nil {
		return nil
	}

	return out
}

// SetAllowedUserIDs 写入额外授权用户列表.
func (v *Video) SetAllowedUserIDs(ids []string) {
	if len(ids) == 0 {
		v.AllowedUserIDsJSON = ""
		return
	}

	b, err := sonic.Marshal(ids)
	if err != nil {
		return
	}

	v.AllowedUserIDsJSON = string(b)
}

// UserAllowed 判断用户是否在额外授权列表中.
func (v *Video) UserAllowed(userID string) bool {
	return slices.Contains(v.AllowedUserIDs(), userID)
}

package configs

import (
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultMaxVideoSizeMB = 500 // 默认单个视频最大尺寸（MB）
	DefaultMaxStorageGB   = 50  // 默认组织存储配额（GB）
)

// UploadConfig 上传限制配置.
// 组织级设置（settings.max_video_size_mb 等）优先于此处的全局默认.
type UploadConfig struct {
	MaxVideoSizeMB int64    `mapstructure:"max_video_size_mb" rule:"min=1"`
	MaxStorageGB   int64    `mapstructure:"max_storage_gb"    rule:"min=1"`
	AllowedFormats []string `mapstructure:"allowed_formats"`
}

// MaxVideoSizeBytes 返回字节数上限.
func (c *UploadConfig) MaxVideoSizeBytes() int64 {
	return c.MaxVideoSizeMB * 1024 * 1024
}

// FormatAllowed 判断内容类型是否在允许列表内.
func (c *UploadConfig) FormatAllowed(contentType string) bool {
	return slices.Contains(c.AllowedFormats, strings.ToLower(strings.TrimSpace(contentType)))
}

// setDefaults 设置上传配置的默认值.
func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.max_video_size_mb", DefaultMaxVideoSizeMB)
	v.SetDefault("upload.max_storage_gb", DefaultMaxStorageGB)
	v.SetDefault("upload.allowed_formats", []string{
		"video/mp4",
		"video/x-msvideo",
		"video/quicktime",
		"video/x-matroska",
		"video/webm",
	})
}

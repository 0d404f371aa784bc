package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// S3Config MinIO/S3 对象存储配置.
// VideoBucket 存放上传原片（videos/ 前缀），ThumbnailBucket 存放生成的封面（thumbnails/ 前缀）.
// 两者可以指向同一个桶.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	VideoBucket     string `mapstructure:"video_bucket"`
	ThumbnailBucket string `mapstructure:"thumbnail_bucket"`
	Region          string `mapstructure:"region"`
}

const (
	DefaultS3Endpoint        = "localhost:9000"      // 默认S3端点
	DefaultS3AccessKeyID     = "minioadmin"          // 默认访问密钥ID
	DefaultS3SecretAccessKey = "minioadmin"          // 默认秘密访问密钥
	DefaultS3UseSSL          = false                 // 默认是否使用SSL
	DefaultS3VideoBucket     = "vidvault-videos"     // 默认视频存储桶
	DefaultS3ThumbnailBucket = "vidvault-thumbnails" // 默认封面存储桶
	DefaultS3Region          = "us-east-1"           // 默认区域
)

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// Buckets 返回需要确保存在的所有桶.
func (c *S3Config) Buckets() []string {
	if c.VideoBucket == c.ThumbnailBucket {
		return []string{c.VideoBucket}
	}

	return []string{c.VideoBucket, c.ThumbnailBucket}
}

// setDefaults 设置 S3 配置的默认值.
func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("s3.video_bucket", DefaultS3VideoBucket)
	v.SetDefault("s3.thumbnail_bucket", DefaultS3ThumbnailBucket)
	v.SetDefault("s3.region", DefaultS3Region)
}

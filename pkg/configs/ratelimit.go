package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// 默认全局限流配置.
	DefaultRateLimitEnabled = true
	DefaultRateLimitRPS     = 50.0
	DefaultRateLimitBurst   = 100

	// 默认认证接口固定窗口：15 分钟 5 次.
	DefaultAuthWindowMinutes = 15
	DefaultAuthWindowMax     = 5

	// 默认上传固定窗口：每小时 20 次（按主体）.
	DefaultUploadWindowMinutes = 60
	DefaultUploadWindowMax     = 20
)

// RateLimitConfig 速率限制配置.
// Global 为进程级令牌桶（按主体或客户端IP），Auth/Upload 为固定窗口计数器，
// 计数存放在 KV 中，配置 redis 后多实例共享.
type RateLimitConfig struct {
	Global GlobalLimitConfig `mapstructure:"global"`
	Auth   WindowLimitConfig `mapstructure:"auth"`
	Upload WindowLimitConfig `mapstructure:"upload"`
}

// GlobalLimitConfig 全局令牌桶限流配置.
type GlobalLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`   // 每秒允许的请求数
	Burst   int     `mapstructure:"burst"` // 突发容量
}

// WindowLimitConfig 固定窗口限流配置.
type WindowLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	WindowMinutes int  `mapstructure:"window_minutes" rule:"min=1"`
	Max           int  `mapstructure:"max"            rule:"min=1"`
}

// Window 返回窗口时长.
func (c *WindowLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.global.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.global.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.global.burst", DefaultRateLimitBurst)

	v.SetDefault("rate_limit.auth.enabled", true)
	v.SetDefault("rate_limit.auth.window_minutes", DefaultAuthWindowMinutes)
	v.SetDefault("rate_limit.auth.max", DefaultAuthWindowMax)

	v.SetDefault("rate_limit.upload.enabled", true)
	v.SetDefault("rate_limit.upload.window_minutes", DefaultUploadWindowMinutes)
	v.SetDefault("rate_limit.upload.max", DefaultUploadWindowMax)
}

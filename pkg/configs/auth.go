package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAccessTTLMinutes = 15       // 访问令牌有效期（分钟）
	DefaultRefreshTTLDays   = 7        // 刷新令牌有效期（天）
	DefaultBcryptCost       = 12       // bcrypt 哈希成本
	DefaultOrgSlug          = "public" // 未携带组织名注册时挂靠的默认组织
)

// AuthConfig 认证与令牌签发配置.
// AccessSecret 与 RefreshSecret 必须不同，两类令牌不可互换使用.
type AuthConfig struct {
	AccessSecret      string `mapstructure:"access_secret"`
	RefreshSecret     string `mapstructure:"refresh_secret"`
	AccessTTLMinutes  int    `mapstructure:"access_ttl_minutes"  rule:"min=1,max=1440"`
	RefreshTTLDays    int    `mapstructure:"refresh_ttl_days"    rule:"min=1,max=90"`
	BcryptCost        int    `mapstructure:"bcrypt_cost"         rule:"min=4,max=31"`
	CookieSecure      bool   `mapstructure:"cookie_secure"`
	DefaultOrgSlug    string `mapstructure:"default_org_slug"`
	DefaultOrgName    string `mapstructure:"default_org_name"`
	AllowRegistration bool   `mapstructure:"allow_registration"`
}

// AccessTTL 返回访问令牌有效期.
func (c *AuthConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMinutes) * time.Minute
}

// RefreshTTL 返回刷新令牌有效期.
func (c *AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// setDefaults 设置认证配置的默认值.
func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.access_secret", "")
	v.SetDefault("auth.refresh_secret", "")
	v.SetDefault("auth.access_ttl_minutes", DefaultAccessTTLMinutes)
	v.SetDefault("auth.refresh_ttl_days", DefaultRefreshTTLDays)
	v.SetDefault("auth.bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.default_org_slug", DefaultOrgSlug)
	v.SetDefault("auth.default_org_name", "Public")
	v.SetDefault("auth.allow_registration", true)
}

package configs

import (
	"github.com/spf13/viper"
)

// CORSConfig 跨域配置，Origin 为前端地址，允许携带凭证.
type CORSConfig struct {
	Origin         string   `mapstructure:"origin"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAgeSeconds  int      `mapstructure:"max_age_seconds"`
}

func (c *CORSConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cors.origin", "http://localhost:5173")
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("cors.max_age_seconds", 43200)
}

package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultFFprobePath = "ffprobe" // 默认 ffprobe 可执行路径
	DefaultFFmpegPath  = "ffmpeg"  // 默认 ffmpeg 可执行路径
)

// MediaConfig 外部媒体工具链配置.
type MediaConfig struct {
	FFprobePath string `mapstructure:"ffprobe_path"`
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	// TempDir 探测与封面生成使用的临时目录，空值表示系统默认
	TempDir string `mapstructure:"temp_dir"`
}

func (c *MediaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("media.ffprobe_path", DefaultFFprobePath)
	v.SetDefault("media.ffmpeg_path", DefaultFFmpegPath)
	v.SetDefault("media.temp_dir", "")
}
